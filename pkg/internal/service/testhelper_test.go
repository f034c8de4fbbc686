package service_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/filesentry/pkg/configs"
	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/storage"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
)

// newTestContext 构造一个带独立临时索引库的测试上下文.
// 每个测试用例一套配置、一套库文件，互不影响.
func newTestContext(t *testing.T) (context.Context, *db.Client) {
	t.Helper()

	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
server:
  data_dir: %s
  reload_config: false
db:
  type: sqlite
  path: %s
log:
  enable_file: false
  level: error
metrics:
  enabled: false
circuit_breaker:
  enabled: false
`, filepath.Join(dir, "data"), filepath.Join(dir, "index.db"))

	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(cfgPath); err != nil {
		t.Fatalf("init config: %v", err)
	}

	ctx := context.Background()

	dbClient, err := db.New(ctx, &configs.GetConfig().DB)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := dbClient.Initialize(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	mgr := &storage.Manager{DB: dbClient}

	return ctxPkg.WithStorageManager(ctx, mgr), dbClient
}

// writeTestFile 在临时目录里落一个文件并返回绝对路径.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	return path
}
