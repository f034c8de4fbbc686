package ipc_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeisme/filesentry/pkg/configs"
	"github.com/yeisme/filesentry/pkg/internal/ipc"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
)

// fakeEngine 记录收到的命令并返回固定应答.
type fakeEngine struct {
	rebuilds int
	undos    int
	lastQ    string
}

func (f *fakeEngine) Status(ctx context.Context) (ipc.EngineStatus, error) {
	return ipc.EngineStatus{State: "Indexing", IndexedCount: 42, IsCrawling: true}, nil
}

func (f *fakeEngine) Search(ctx context.Context, query string) []service.FileResult {
	f.lastQ = query

	return []service.FileResult{{ID: 1, Path: "/docs/a.txt", Name: "a.txt", Size: 10}}
}

func (f *fakeEngine) Rebuild(ctx context.Context) error {
	f.rebuilds++

	return nil
}

func (f *fakeEngine) Undo(ctx context.Context) error {
	f.undos++

	return nil
}

func (f *fakeEngine) Rules(ctx context.Context) ([]model.Rule, error) {
	return []model.Rule{{Name: "PDF Documents", ConditionType: "extension", ConditionValue: ".pdf",
		ActionType: "tag", ActionValue: "Document", IsActive: true}}, nil
}

// startTestServer 起一套套接字在临时路径上的服务端和客户端配置.
// unix 套接字路径有长度上限，放在系统临时目录下用短名字.
func startTestServer(t *testing.T, engine ipc.Engine) *ipc.Server {
	t.Helper()

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("fs-test-%d.sock", time.Now().UnixNano()%1_000_000))

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
server:
  data_dir: %s
  reload_config: false
log:
  enable_file: false
  level: error
ipc:
  socket_path: %s
  dial_timeout_ms: 200
  max_retries: 2
  retry_base_ms: 10
`, dir, socket)

	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(cfgPath); err != nil {
		t.Fatalf("init config: %v", err)
	}

	srv := ipc.NewServer(engine)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}

	t.Cleanup(srv.Stop)

	return srv
}

// TestStatusRoundTrip STATUS 命令返回引擎状态 JSON.
func TestStatusRoundTrip(t *testing.T) {
	startTestServer(t, &fakeEngine{})

	status := ipc.NewClient().Status()

	if status.State != "Indexing" {
		t.Errorf("state = %q, want Indexing", status.State)
	}

	if status.IndexedCount != 42 || !status.IsCrawling {
		t.Errorf("unexpected status: %+v", status)
	}
}

// TestSearchRoundTrip SEARCH 命令透传查询词并返回结果数组.
func TestSearchRoundTrip(t *testing.T) {
	engine := &fakeEngine{}
	startTestServer(t, engine)

	results, err := ipc.NewClient().Search("tax invoice")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if engine.lastQ != "tax invoice" {
		t.Errorf("query = %q, want %q", engine.lastQ, "tax invoice")
	}

	if len(results) != 1 || results[0].Path != "/docs/a.txt" {
		t.Errorf("unexpected results: %+v", results)
	}
}

// TestRulesRoundTrip GET_RULES 命令返回规则数组.
func TestRulesRoundTrip(t *testing.T) {
	startTestServer(t, &fakeEngine{})

	rules, err := ipc.NewClient().Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}

	if len(rules) != 1 || rules[0].Name != "PDF Documents" {
		t.Errorf("unexpected rules: %+v", rules)
	}
}

// TestRebuildAndUndo REBUILD 和 UNDO 命令触达引擎并回 OK.
func TestRebuildAndUndo(t *testing.T) {
	engine := &fakeEngine{}
	startTestServer(t, engine)

	client := ipc.NewClient()

	if err := client.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if err := client.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	if engine.rebuilds != 1 || engine.undos != 1 {
		t.Errorf("rebuilds=%d undos=%d, want 1/1", engine.rebuilds, engine.undos)
	}
}

// TestUnknownCommand 未知命令回 OK，保持版本宽松兼容.
func TestUnknownCommand(t *testing.T) {
	startTestServer(t, &fakeEngine{})

	response, err := ipc.NewClient().Send("FROBNICATE now")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if response != "OK" {
		t.Errorf("response = %q, want OK", response)
	}
}

// TestClientDisconnected 守护进程不在时客户端报 Disconnected 状态而不是错误.
func TestClientDisconnected(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
server:
  data_dir: %s
  reload_config: false
log:
  enable_file: false
  level: error
ipc:
  socket_path: %s
  dial_timeout_ms: 50
  max_retries: 2
  retry_base_ms: 10
`, dir, filepath.Join(os.TempDir(), "fs-absent.sock"))

	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(cfgPath); err != nil {
		t.Fatalf("init config: %v", err)
	}

	status := ipc.NewClient().Status()
	if status.State != ipc.StateDisconnected {
		t.Fatalf("state = %q, want %q", status.State, ipc.StateDisconnected)
	}
}
