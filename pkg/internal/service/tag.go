package service

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// TagService 负责标签的创建与文件-标签关联.
// 关联是幂等的：同一 (file, tag) 重复写只更新置信度.
type TagService struct {
	dbClient *db.Client
}

// NewTagService 从 context 获取依赖实例.
func NewTagService(c context.Context) *TagService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &TagService{dbClient: dbc}
}

// TagFile 给路径对应的文件打标签.标签不存在则按 origin 创建；
// 文件不在索引里时静默返回（上游先 upsert 再打标签，正常流程不会走到）.
func (s *TagService) TagFile(ctx context.Context, filePath, tagName string, confidence float64, origin string) error {
	tx := s.dbClient.WithContext(ctx)

	var file model.File
	if err := tx.Select("id").Where("path = ?", filePath).First(&file).Error; err != nil {
		return nil
	}

	tag := model.Tag{Name: tagName, Type: origin}
	if err := tx.Where("name = ?", tagName).FirstOrCreate(&tag).Error; err != nil {
		return fmt.Errorf("create tag %q: %w", tagName, err)
	}

	ft := model.FileTag{FileID: file.ID, TagID: tag.ID, Confidence: confidence}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}, {Name: "tag_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"confidence"}),
	}).Create(&ft).Error
	if err != nil {
		return fmt.Errorf("associate tag %q with %s: %w", tagName, filePath, err)
	}

	return nil
}

// HasTag 判断文件当前是否带有指定名称的标签.
func (s *TagService) HasTag(ctx context.Context, filePath, tagName string) (bool, error) {
	var count int64

	err := s.dbClient.WithContext(ctx).
		Table("file_tags").
		Joins("JOIN tags ON file_tags.tag_id = tags.id").
		Joins("JOIN files ON file_tags.file_id = files.id").
		Where("files.path = ? AND tags.name = ?", filePath, tagName).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RemoveTag 删除文件-标签关联（UNDO 用）.标签本身保留.
func (s *TagService) RemoveTag(ctx context.Context, filePath, tagName string) error {
	tx := s.dbClient.WithContext(ctx)

	var file model.File
	if err := tx.Select("id").Where("path = ?", filePath).First(&file).Error; err != nil {
		return nil
	}

	var tag model.Tag
	if err := tx.Select("id").Where("name = ?", tagName).First(&tag).Error; err != nil {
		return nil
	}

	return tx.Where("file_id = ? AND tag_id = ?", file.ID, tag.ID).
		Delete(&model.FileTag{}).Error
}
