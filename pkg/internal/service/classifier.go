package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// classifierConfidence 分类器标签的固定置信度，低于规则标签的 1.0.
const classifierConfidence = 0.85

// ClassifierModel 内容分类器的能力集，可插拔.
// 默认实现是 KeywordModel；换成真模型时只需要实现这四个方法.
type ClassifierModel interface {
	Name() string
	Initialize() error
	// Classify 从内容产出主题标签列表.
	Classify(content string) []string
	// Embed 从内容产出定长嵌入向量.
	Embed(content string) []float32
}

// AIService 对单个文件执行分类与嵌入，并把结果落库.
type AIService struct {
	dbClient *db.Client
	tags     *TagService
	model    ClassifierModel
}

// NewAIService 从 context 获取依赖实例，model 为 nil 时使用默认的 KeywordModel.
func NewAIService(c context.Context, tags *TagService, m ClassifierModel) *AIService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil || tags == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	if m == nil {
		m = &KeywordModel{}
	}

	if err := m.Initialize(); err != nil {
		nlog.Logger().Fatal().Err(err).Str("model", m.Name()).Msg("classifier init failed")
	}

	return &AIService{dbClient: dbc, tags: tags, model: m}
}

// Model 返回当前分类器模型.
func (s *AIService) Model() ClassifierModel {
	return s.model
}

// ProcessFile 对已入库的文件执行分类与嵌入.
// 分类标签按 0.85 置信度、ai 来源落库；嵌入向量写入 file_embeddings.
func (s *AIService) ProcessFile(ctx context.Context, filePath, content string) error {
	tags := s.model.Classify(content)
	for _, tag := range tags {
		if err := s.tags.TagFile(ctx, filePath, tag, classifierConfidence, model.TagOriginAI); err != nil {
			return err
		}

		nlog.Logger().Info().Str("path", filePath).Str("tag", tag).Msg("classifier tagged file")
	}

	return s.storeEmbedding(ctx, filePath, s.model.Embed(content))
}

// storeEmbedding 按文件一行 upsert 嵌入向量（JSON 编码）.
func (s *AIService) storeEmbedding(ctx context.Context, filePath string, vector []float32) error {
	tx := s.dbClient.WithContext(ctx)

	var file model.File
	if err := tx.Select("id").Where("path = ?", filePath).First(&file).Error; err != nil {
		return nil
	}

	data, err := sonic.Marshal(vector)
	if err != nil {
		return err
	}

	emb := model.FileEmbedding{
		FileID:    file.ID,
		Vector:    string(data),
		UpdatedAt: time.Now().UTC().Unix(),
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vector", "updated_at"}),
	}).Create(&emb).Error
}
