package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
)

// newPipeline 组装完整的索引流水线.
func newPipeline(ctx context.Context) *service.IndexerService {
	tags := service.NewTagService(ctx)
	actionLog := service.NewActionLogService(ctx)
	ai := service.NewAIService(ctx, tags, nil)
	partners := service.NewPartnerService(ctx)
	rules := service.NewRulesEngineService(ctx, tags, actionLog)

	return service.NewIndexerService(ctx, rules, ai, partners, actionLog)
}

// TestIndexFileCreatesRecord 索引一个文件产生一条记录，元数据与内容齐全.
func TestIndexFileCreatesRecord(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	indexer := newPipeline(ctx)

	path := writeTestFile(t, t.TempDir(), "note.txt", "hello indexing world")

	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	var file model.File
	if err := dbClient.Where("path = ?", path).First(&file).Error; err != nil {
		t.Fatalf("record not found: %v", err)
	}

	if file.Name != "note.txt" || file.Extension != ".txt" {
		t.Errorf("unexpected metadata: name=%q ext=%q", file.Name, file.Extension)
	}

	if file.Content != "hello indexing world" {
		t.Errorf("unexpected content: %q", file.Content)
	}
}

// TestIndexFileUpsert 重复索引同一路径只保留一行，内容更新为最新.
func TestIndexFileUpsert(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	indexer := newPipeline(ctx)
	dir := t.TempDir()

	path := writeTestFile(t, dir, "doc.txt", "first version")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	writeTestFile(t, dir, "doc.txt", "second version")

	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile again: %v", err)
	}

	var count int64
	if err := dbClient.Model(&model.File{}).Where("path = ?", path).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 1 {
		t.Fatalf("expected 1 record for path, got %d", count)
	}

	var file model.File
	if err := dbClient.Where("path = ?", path).First(&file).Error; err != nil {
		t.Fatalf("record not found: %v", err)
	}

	if file.Content != "second version" {
		t.Errorf("content not updated: %q", file.Content)
	}
}

// TestIndexMissingFileIsNoop 路径不存在时静默跳过，不产生记录.
func TestIndexMissingFileIsNoop(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	indexer := newPipeline(ctx)

	if err := indexer.IndexFile(ctx, "/nonexistent/ghost.txt"); err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}

	count, err := indexer.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	if count != 0 {
		t.Fatalf("expected empty index, got %d records", count)
	}

	_ = dbClient
}

// TestRemoveFileKeepsRecord 删除事件不移除记录，过期条目留到重建清理.
func TestRemoveFileKeepsRecord(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	indexer := newPipeline(ctx)

	path := writeTestFile(t, t.TempDir(), "gone.txt", "soon deleted")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	if err := indexer.RemoveFile(ctx, path); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}

	var count int64
	if err := dbClient.Model(&model.File{}).Where("path = ?", path).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 1 {
		t.Fatalf("record should survive remove event, got %d rows", count)
	}
}

// TestIndexWritesAuditAndEmbedding 流水线落审计条目和嵌入向量.
func TestIndexWritesAuditAndEmbedding(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	indexer := newPipeline(ctx)

	path := writeTestFile(t, t.TempDir(), "audit.txt", "meeting agenda for tomorrow")
	if err := indexer.IndexFile(ctx, path); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}

	var audit int64
	if err := dbClient.Model(&model.ActionLog{}).
		Where("file_path = ? AND action_type = ?", path, model.ActionIndex).
		Count(&audit).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}

	if audit != 1 {
		t.Errorf("expected 1 index audit entry, got %d", audit)
	}

	var file model.File
	if err := dbClient.Where("path = ?", path).First(&file).Error; err != nil {
		t.Fatalf("record not found: %v", err)
	}

	var emb model.FileEmbedding
	if err := dbClient.Where("file_id = ?", file.ID).First(&emb).Error; err != nil {
		t.Fatalf("embedding not stored: %v", err)
	}

	if emb.Vector == "" {
		t.Error("embedding vector is empty")
	}
}

// TestSearchFindsIndexedContent 索引过的内容可以通过全文检索找到.
func TestSearchFindsIndexedContent(t *testing.T) {
	ctx, _ := newTestContext(t)
	indexer := newPipeline(ctx)
	search := service.NewSearchService(ctx)
	dir := t.TempDir()

	target := writeTestFile(t, dir, "report.txt", "quarterly zebra figures")
	other := writeTestFile(t, dir, "other.txt", "unrelated notes")

	for _, p := range []string{target, other} {
		if err := indexer.IndexFile(ctx, p); err != nil {
			t.Fatalf("IndexFile %s: %v", p, err)
		}
	}

	results := search.Search(ctx, "zebra")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Path != target {
		t.Errorf("unexpected hit: %s", results[0].Path)
	}
}

// TestSearchEmptyQuery 空查询返回空切片，不触库.
func TestSearchEmptyQuery(t *testing.T) {
	ctx, _ := newTestContext(t)
	search := service.NewSearchService(ctx)

	results := search.Search(ctx, "")
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty slice, got %v", results)
	}
}

// TestSearchLimit 检索结果不超过上限 50 条.
func TestSearchLimit(t *testing.T) {
	ctx, dbClient := newTestContext(t)
	search := service.NewSearchService(ctx)

	for i := 0; i < 60; i++ {
		file := model.File{
			Path:    fmt.Sprintf("/bulk/file-%d.txt", i),
			Name:    "bulk.txt",
			Content: "common needle text",
		}
		if err := dbClient.Create(&file).Error; err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}

	results := search.Search(ctx, "needle")
	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
}
