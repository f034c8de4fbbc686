package db

import (
	"fmt"

	"github.com/yeisme/filesentry/pkg/internal/model"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// ftsDDL 全文索引：FTS5 外部内容表，行号绑定 files.id，
// 三个触发器保证对 files 的 insert/update/delete 在同一条语句里同步进索引，
// 不存在主表和索引能够分叉的窗口.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
    name,
    content,
    content='files',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
  INSERT INTO files_fts(rowid, name, content) VALUES (new.id, new.name, new.content);
END;

CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
  INSERT INTO files_fts(files_fts, rowid, name, content) VALUES('delete', old.id, old.name, old.content);
END;

CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
  INSERT INTO files_fts(files_fts, rowid, name, content) VALUES('delete', old.id, old.name, old.content);
  INSERT INTO files_fts(rowid, name, content) VALUES (new.id, new.name, new.content);
END;
`

// Initialize 建表建索引，幂等，每次启动都调用.
func (c *Client) Initialize() error {
	if err := c.AutoMigrate(
		&model.File{},
		&model.FileEmbedding{},
		&model.Tag{},
		&model.FileTag{},
		&model.Rule{},
		&model.Partner{},
		&model.FilePartner{},
		&model.ActionLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := c.Exec(ftsDDL).Error; err != nil {
		return fmt.Errorf("failed to create fts index: %w", err)
	}

	nlog.Logger().Info().Msg("内容库 schema 初始化完成")

	return nil
}

// Rebuild 清空所有内容状态（文件、标签、实体关联、全文索引），
// 保留规则和实体定义——这是内容重建，不是配置重置.审计日志只追加，也不动.
func (c *Client) Rebuild() error {
	stmts := []string{
		"DELETE FROM file_tags",
		"DELETE FROM file_partners",
		"DELETE FROM file_embeddings",
		"DELETE FROM tags",
		// files 上的删除触发器会把对应行同步清出 files_fts
		"DELETE FROM files",
	}

	for _, s := range stmts {
		if err := c.Exec(s).Error; err != nil {
			return fmt.Errorf("rebuild: %w", err)
		}
	}

	nlog.Logger().Info().Msg("内容库已清空，等待重新爬取")

	return nil
}
