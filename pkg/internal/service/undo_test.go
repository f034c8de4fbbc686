package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
)

// TestUndoNothing 没有可撤销的动作时返回 ErrNothingToUndo.
func TestUndoNothing(t *testing.T) {
	ctx, _ := newTestContext(t)

	tags := service.NewTagService(ctx)
	undo := service.NewUndoService(ctx, tags)

	if _, err := undo.UndoLast(ctx); !errors.Is(err, service.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

// TestUndoTag 撤销标签动作删除文件-标签关联，审计条目翻成 undone.
func TestUndoTag(t *testing.T) {
	ctx, dbClient := newTestContext(t)

	tags := service.NewTagService(ctx)
	undo := service.NewUndoService(ctx, tags)
	indexer := newPipeline(ctx)

	path := writeTestFile(t, t.TempDir(), "tagged.go", "package main")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	has, err := tags.HasTag(ctx, path, "Code")
	if err != nil || !has {
		t.Fatalf("precondition failed: has=%v err=%v", has, err)
	}

	entry, err := undo.UndoLast(ctx)
	if err != nil {
		t.Fatalf("UndoLast: %v", err)
	}

	if entry.ActionType != model.ActionTag || entry.Status != model.StatusUndone {
		t.Fatalf("unexpected undone entry: %+v", entry)
	}

	has, err = tags.HasTag(ctx, path, "Code")
	if err != nil {
		t.Fatalf("HasTag: %v", err)
	}

	if has {
		t.Fatal("tag association should be gone after undo")
	}

	// 审计条目本身保留，只是状态翻了
	var stored model.ActionLog
	if err := dbClient.First(&stored, entry.ID).Error; err != nil {
		t.Fatalf("audit entry deleted: %v", err)
	}

	if stored.Status != model.StatusUndone {
		t.Errorf("stored status = %q, want undone", stored.Status)
	}
}

// TestUndoMove 撤销 move 动作把文件从目标位置搬回原路径.
func TestUndoMove(t *testing.T) {
	ctx, dbClient := newTestContext(t)

	destDir := filepath.Join(t.TempDir(), "dest")
	rule := model.Rule{
		Name: "Move Logs", ConditionType: model.ConditionExtension, ConditionValue: ".log",
		ActionType: model.ActionMove, ActionValue: destDir, IsActive: true,
	}
	if err := dbClient.Create(&rule).Error; err != nil {
		t.Fatalf("insert rule: %v", err)
	}

	tags := service.NewTagService(ctx)
	undo := service.NewUndoService(ctx, tags)
	indexer := newPipeline(ctx)

	path := writeTestFile(t, t.TempDir(), "svc.log", "log body")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	moved := filepath.Join(destDir, "svc.log")
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("precondition: file not moved: %v", err)
	}

	entry, err := undo.UndoLast(ctx)
	if err != nil {
		t.Fatalf("UndoLast: %v", err)
	}

	if entry.ActionType != model.ActionMove {
		t.Fatalf("undid wrong action: %+v", entry)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not restored to original path: %v", err)
	}

	if _, err := os.Stat(moved); !os.IsNotExist(err) {
		t.Fatalf("file still at destination: %v", err)
	}
}

// TestUndoSkipsIndexEntries index 审计条目不可撤销，UNDO 跳过它找最近的可逆动作.
func TestUndoSkipsIndexEntries(t *testing.T) {
	ctx, _ := newTestContext(t)

	tags := service.NewTagService(ctx)
	undo := service.NewUndoService(ctx, tags)
	indexer := newPipeline(ctx)

	// .md 不命中任何默认规则，只留下 index 审计和可能的分类标签
	path := writeTestFile(t, t.TempDir(), "notes.md", "plain notes without keywords")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	if _, err := undo.UndoLast(ctx); !errors.Is(err, service.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo (index entries are not reversible), got %v", err)
	}
}
