package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// ErrNothingToUndo 没有可撤销的动作.
var ErrNothingToUndo = errors.New("nothing to undo")

// reversibleActions 可撤销的动作类型.copy 不可撤销（原文件仍在原处）.
var reversibleActions = []string{
	model.ActionTag,
	model.ActionMove,
	model.ActionRename,
	model.ActionQuarantine,
}

// UndoService 撤销最近一次可逆的自动化动作.
// 回放依据审计条目的 Target 列：搬移类动作把文件从 Target 搬回原路径，
// 标签动作删除关联.成功后条目状态翻成 undone，条目本身保留.
type UndoService struct {
	dbClient *db.Client
	tags     *TagService
}

// NewUndoService 从 context 获取依赖实例.
func NewUndoService(c context.Context, tags *TagService) *UndoService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil || tags == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &UndoService{dbClient: dbc, tags: tags}
}

// UndoLast 撤销最近一条成功状态的可逆动作.
// 没有可撤销的条目时返回 ErrNothingToUndo.
func (s *UndoService) UndoLast(ctx context.Context) (*model.ActionLog, error) {
	tx := s.dbClient.WithContext(ctx)

	var entry model.ActionLog

	err := tx.Where("status = ? AND action_type IN ?", model.StatusSuccess, reversibleActions).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNothingToUndo
		}

		return nil, err
	}

	if err := s.revert(ctx, entry); err != nil {
		return nil, fmt.Errorf("undo %s on %s: %w", entry.ActionType, entry.FilePath, err)
	}

	if err := tx.Model(&model.ActionLog{}).
		Where("id = ?", entry.ID).
		Update("status", model.StatusUndone).Error; err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("action", entry.ActionType).
		Str("path", entry.FilePath).
		Msg("undid last action")

	entry.Status = model.StatusUndone

	return &entry, nil
}

func (s *UndoService) revert(ctx context.Context, entry model.ActionLog) error {
	switch entry.ActionType {
	case model.ActionTag:
		return s.tags.RemoveTag(ctx, entry.FilePath, entry.Target)
	case model.ActionMove, model.ActionRename, model.ActionQuarantine:
		if entry.Target == "" {
			return errors.New("no target recorded")
		}

		if _, err := os.Stat(entry.Target); err != nil {
			return fmt.Errorf("moved file no longer at %s: %w", entry.Target, err)
		}

		return moveFile(entry.Target, entry.FilePath)
	default:
		return fmt.Errorf("action type %s is not reversible", entry.ActionType)
	}
}
