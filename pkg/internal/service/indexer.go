package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/parser"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
	"github.com/yeisme/filesentry/pkg/metrics"
)

const (
	// parseRetries 瞬时文件锁的最大重试次数.
	parseRetries = 3
	// parseBackoffBase 重试退避基数，第 n 次重试等待 n*base.
	parseBackoffBase = 500 * time.Millisecond
)

// IndexerService 单文件索引流水线：
// 元数据 -> 内容提取 -> upsert 入库 -> 规则 -> 分类 -> 实体检测 -> 审计.
// 任一阶段失败只中止该文件的后续阶段，不影响别的文件.
type IndexerService struct {
	dbClient  *db.Client
	rules     *RulesEngineService
	ai        *AIService
	partners  *PartnerService
	actionLog *ActionLogService
}

// NewIndexerService 从 context 获取依赖实例.
func NewIndexerService(c context.Context, rules *RulesEngineService, ai *AIService, partners *PartnerService, actionLog *ActionLogService) *IndexerService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil || rules == nil || ai == nil || partners == nil || actionLog == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &IndexerService{
		dbClient:  dbc,
		rules:     rules,
		ai:        ai,
		partners:  partners,
		actionLog: actionLog,
	}
}

// IndexFile 对一个路径执行完整索引流水线.
// 路径已不存在时静默跳过（事件到达时文件可能已被移走）.
func (s *IndexerService) IndexFile(ctx context.Context, filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	if info.IsDir() {
		return nil
	}

	content := s.extract(filePath)

	file := model.File{
		Path:         filePath,
		Name:         filepath.Base(filePath),
		Extension:    filepath.Ext(filePath),
		Size:         info.Size(),
		LastModified: info.ModTime().UTC().Unix(),
		Content:      content,
	}

	// path 冲突走 upsert，同一路径永远只有一行
	err = s.dbClient.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "extension", "size", "last_modified", "content"}),
	}).Create(&file).Error
	if err != nil {
		return fmt.Errorf("upsert file record %s: %w", filePath, err)
	}

	metrics.IndexedFiles.Inc()
	nlog.Logger().Debug().Str("path", filePath).Int("content_len", len(content)).Msg("indexed file")

	// 后处理阶段：规则可能移动/改名文件，必须先于分类执行；
	// 任一阶段失败记日志并中止该文件的后续阶段
	if err := s.rules.Apply(ctx, filePath); err != nil {
		nlog.Logger().Error().Err(err).Str("path", filePath).Msg("rule stage failed")

		return err
	}

	// 规则动作可能已把文件移走；分类和实体检测只依赖已抓取的内容，照常执行
	if err := s.ai.ProcessFile(ctx, filePath, content); err != nil {
		nlog.Logger().Error().Err(err).Str("path", filePath).Msg("classification stage failed")

		return err
	}

	if err := s.partners.Detect(ctx, filePath, content); err != nil {
		nlog.Logger().Error().Err(err).Str("path", filePath).Msg("partner detection stage failed")

		return err
	}

	s.actionLog.Record(ctx, filePath, model.ActionIndex, "File indexed", "")

	return nil
}

// RemoveFile 处理删除事件.
// 目前只记日志：FileRecord 不随删除事件移除，过期条目由重建清理.
func (s *IndexerService) RemoveFile(ctx context.Context, filePath string) error {
	nlog.Logger().Debug().Str("path", filePath).Msg("file removed, record retained until rebuild")

	return nil
}

// Count 返回已索引文件总数.
func (s *IndexerService) Count(ctx context.Context) (int64, error) {
	var count int64

	err := s.dbClient.WithContext(ctx).Model(&model.File{}).Count(&count).Error

	return count, err
}

// extract 选择提取器并在瞬时文件锁上退避重试.
// 没有匹配的提取器、重试耗尽、或非瞬时失败都退化为空内容.
func (s *IndexerService) extract(filePath string) string {
	p := parser.Select(filepath.Ext(filePath))
	if p == nil {
		return ""
	}

	for attempt := 1; attempt <= parseRetries; attempt++ {
		content, err := p.Parse(filePath)
		if err == nil {
			return content
		}

		if !parser.IsTransient(err) {
			metrics.ParseFailures.WithLabelValues(p.Name()).Inc()
			nlog.Logger().Warn().Err(err).Str("path", filePath).Str("parser", p.Name()).Msg("content extraction failed")

			return ""
		}

		nlog.Logger().Debug().
			Str("path", filePath).
			Int("attempt", attempt).
			Msg("file locked, retrying")
		time.Sleep(time.Duration(attempt) * parseBackoffBase)
	}

	metrics.ParseFailures.WithLabelValues(p.Name()).Inc()
	nlog.Logger().Warn().Str("path", filePath).Str("parser", p.Name()).Msg("file stayed locked, indexing metadata only")

	return ""
}
