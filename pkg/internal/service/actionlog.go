package service

import (
	"context"
	"time"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// ActionLogService 只追加的审计日志.写失败只记日志，绝不打断调用方的流水线.
type ActionLogService struct {
	dbClient *db.Client
}

// NewActionLogService 从 context 获取依赖实例.
func NewActionLogService(c context.Context) *ActionLogService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &ActionLogService{dbClient: dbc}
}

// Record 追加一条成功状态的审计条目.target 是动作目的地（路径或标签名），可为空.
func (s *ActionLogService) Record(ctx context.Context, filePath, actionType, description, target string) {
	s.record(ctx, filePath, actionType, description, target, model.StatusSuccess)
}

// RecordError 追加一条失败状态的审计条目.
func (s *ActionLogService) RecordError(ctx context.Context, filePath, actionType, description string) {
	s.record(ctx, filePath, actionType, description, "", model.StatusError)
}

func (s *ActionLogService) record(ctx context.Context, filePath, actionType, description, target, status string) {
	entry := model.ActionLog{
		FilePath:    filePath,
		ActionType:  actionType,
		Description: description,
		Target:      target,
		Timestamp:   time.Now().UTC().Unix(),
		Status:      status,
	}

	if err := s.dbClient.WithContext(ctx).Create(&entry).Error; err != nil {
		nlog.Logger().Error().Err(err).
			Str("path", filePath).
			Str("action", actionType).
			Msg("failed to log action")
	}
}

// Recent 按时间倒序返回最近的审计条目.
func (s *ActionLogService) Recent(ctx context.Context, limit int) ([]model.ActionLog, error) {
	var entries []model.ActionLog

	err := s.dbClient.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error

	return entries, err
}
