package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filesentry/pkg/configs"
	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/storage"
	"github.com/yeisme/filesentry/pkg/internal/storage/mq"
	"github.com/yeisme/filesentry/pkg/queue"
)

// writeCrawlerConfig 落一份指向给定根目录的最小配置并加载.
// 可以重复调用，Configure 读到的就是最后一次加载的配置.
func writeCrawlerConfig(t *testing.T, locations []string, walkRPS float64) {
	t.Helper()

	dir := t.TempDir()

	locs := ""
	for _, l := range locations {
		locs += "\n    - " + l
	}

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
crawler:
  debounce_ms: 20
  walk_rps: %g
  walk_burst: 1
  rescan_interval_minutes: 0
  locations:%s
`, filepath.Join(dir, "data"), filepath.Join(dir, "index.db"), walkRPS, locs)

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(cfgPath); err != nil {
		t.Fatalf("init config: %v", err)
	}
}

// newTestCrawler 构造一个挂在进程内事件总线上的爬虫.
func newTestCrawler(t *testing.T, locations []string, walkRPS float64) (context.Context, *Crawler, *mq.Client) {
	t.Helper()

	writeCrawlerConfig(t, locations, walkRPS)

	ctx := context.Background()

	mqClient, err := mq.New(ctx)
	if err != nil {
		t.Fatalf("init mq: %v", err)
	}

	t.Cleanup(func() { _ = mqClient.Close() })

	ctx = ctxPkg.WithStorageManager(ctx, &storage.Manager{MQ: mqClient})

	c, err := New(ctx)
	if err != nil {
		t.Fatalf("init crawler: %v", err)
	}

	return ctx, c, mqClient
}

// waitMsg 等待并确认一条消息，超时即失败.
func waitMsg(t *testing.T, ch <-chan *message.Message, timeout time.Duration) *message.Message {
	t.Helper()

	select {
	case msg := <-ch:
		msg.Ack()

		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
	}

	return nil
}

// waitNotCrawling 轮询等待所有根目录扫描结束.
func waitNotCrawling(t *testing.T, c *Crawler, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !c.IsCrawling() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("crawl did not finish in time")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	return path
}

// TestResolveLocationsFiltering 根目录解析：特殊名称展开到主目录下，
// 相对路径和不存在的目录静默丢弃.
func TestResolveLocationsFiltering(t *testing.T) {
	valid := t.TempDir()

	home := t.TempDir()
	t.Setenv("HOME", home)

	docs := filepath.Join(home, "Documents")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, c, _ := newTestCrawler(t, []string{valid, "relative/dir", "/filesentry-no-such-dir", "Documents"}, 0)

	roots := c.resolveLocations()
	if len(roots) != 2 {
		t.Fatalf("resolved roots = %v, want [%s %s]", roots, valid, docs)
	}

	got := map[string]bool{}
	for _, r := range roots {
		got[r] = true
	}

	if !got[valid] || !got[docs] {
		t.Errorf("resolved roots = %v, want valid dir and home Documents", roots)
	}
}

// TestCrawlPublishesDiscoveredEvents 全量扫描：发布 crawl.started、
// 每个文件一条 file.discovered（含子目录）、crawl.finished 带文件数；
// 扫描结束后 IsCrawling 归零，新建文件经监听+去抖产生 file.changed.
func TestCrawlPublishesDiscoveredEvents(t *testing.T) {
	root := t.TempDir()
	pathA := writeFile(t, root, "a.txt", "alpha")

	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	pathB := writeFile(t, sub, "b.txt", "beta")

	ctx, c, mqClient := newTestCrawler(t, []string{root}, 0)

	discovered, err := mqClient.Subscribe(ctx, queue.TopicFileDiscovered)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	started, err := mqClient.Subscribe(ctx, queue.TopicCrawlStarted)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	finished, err := mqClient.Subscribe(ctx, queue.TopicCrawlFinished)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	changed, err := mqClient.Subscribe(ctx, queue.TopicFileChanged)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.Start(ctx)
	defer c.Stop()

	startEnv, err := queue.ParseWatermillMessage[queue.CrawlPayload](waitMsg(t, started, 3*time.Second))
	if err != nil {
		t.Fatalf("parse crawl.started: %v", err)
	}

	if startEnv.Payload.Root != root {
		t.Errorf("crawl.started root = %q, want %q", startEnv.Payload.Root, root)
	}

	found := map[string]bool{}

	for n := 0; n < 2; n++ {
		env, err := queue.ParseWatermillMessage[queue.FileEventPayload](waitMsg(t, discovered, 3*time.Second))
		if err != nil {
			t.Fatalf("parse file.discovered: %v", err)
		}

		if env.Payload.Op != "walk" || env.Payload.Root != root {
			t.Errorf("discovered payload = %+v, want op=walk root=%s", env.Payload, root)
		}

		found[env.Payload.Path] = true
	}

	if !found[pathA] || !found[pathB] {
		t.Errorf("discovered paths = %v, want %s and %s", found, pathA, pathB)
	}

	finEnv, err := queue.ParseWatermillMessage[queue.CrawlPayload](waitMsg(t, finished, 3*time.Second))
	if err != nil {
		t.Fatalf("parse crawl.finished: %v", err)
	}

	if finEnv.Payload.Files != 2 {
		t.Errorf("crawl.finished files = %d, want 2", finEnv.Payload.Files)
	}

	waitNotCrawling(t, c, 2*time.Second)

	// 监听路径：新文件经去抖后以 file.changed 到达
	pathC := writeFile(t, root, "c.txt", "gamma")

	chEnv, err := queue.ParseWatermillMessage[queue.FileEventPayload](waitMsg(t, changed, 3*time.Second))
	if err != nil {
		t.Fatalf("parse file.changed: %v", err)
	}

	if chEnv.Payload.Path != pathC {
		t.Errorf("file.changed path = %q, want %q", chEnv.Payload.Path, pathC)
	}
}

// TestStopCancelsActiveWalk 限速拉长扫描后中途 Stop：
// 进行中的遍历随生命周期上下文取消，Stop 不会等整轮扫描自然跑完.
func TestStopCancelsActiveWalk(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		writeFile(t, root, fmt.Sprintf("f%02d.txt", i), "x")
	}

	ctx, c, mqClient := newTestCrawler(t, []string{root}, 5)

	discovered, err := mqClient.Subscribe(ctx, queue.TopicFileDiscovered)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.Start(ctx)

	waitMsg(t, discovered, 3*time.Second)

	if !c.IsCrawling() {
		t.Fatal("expected a crawl in flight after the first discovered file")
	}

	done := make(chan struct{})

	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked on an uncancelled walk")
	}

	if c.IsCrawling() {
		t.Error("crawl still in flight after Stop")
	}
}

// TestRescanAfterStopIsNoop 停止后的 Rescan 是空操作：不发事件也不 panic.
func TestRescanAfterStopIsNoop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")

	ctx, c, mqClient := newTestCrawler(t, []string{root}, 0)

	discovered, err := mqClient.Subscribe(ctx, queue.TopicFileDiscovered)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.Start(ctx)
	waitMsg(t, discovered, 3*time.Second)
	waitNotCrawling(t, c, 2*time.Second)

	c.Stop()
	c.Rescan()

	if c.IsCrawling() {
		t.Error("rescan after Stop started a walk")
	}

	select {
	case msg := <-discovered:
		t.Fatalf("unexpected event after Stop: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

// TestConfigureSwitchesRoots 重新加载配置后 Configure 重建爬虫：
// 新根目录被扫描，移除的根目录不再被监听.
func TestConfigureSwitchesRoots(t *testing.T) {
	rootA := t.TempDir()
	pathA := writeFile(t, rootA, "a.txt", "alpha")

	rootB := t.TempDir()
	pathB := writeFile(t, rootB, "b.txt", "beta")

	ctx, c, mqClient := newTestCrawler(t, []string{rootA}, 0)

	discovered, err := mqClient.Subscribe(ctx, queue.TopicFileDiscovered)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	changed, err := mqClient.Subscribe(ctx, queue.TopicFileChanged)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.Start(ctx)
	defer c.Stop()

	env, err := queue.ParseWatermillMessage[queue.FileEventPayload](waitMsg(t, discovered, 3*time.Second))
	if err != nil {
		t.Fatalf("parse file.discovered: %v", err)
	}

	if env.Payload.Path != pathA {
		t.Errorf("discovered path = %q, want %q", env.Payload.Path, pathA)
	}

	waitNotCrawling(t, c, 2*time.Second)

	// 切换配置到 rootB 并重建
	writeCrawlerConfig(t, []string{rootB}, 0)

	if err := c.Configure(ctx); err != nil {
		t.Fatalf("configure: %v", err)
	}

	env, err = queue.ParseWatermillMessage[queue.FileEventPayload](waitMsg(t, discovered, 3*time.Second))
	if err != nil {
		t.Fatalf("parse file.discovered: %v", err)
	}

	if env.Payload.Path != pathB {
		t.Errorf("discovered path after configure = %q, want %q", env.Payload.Path, pathB)
	}

	waitNotCrawling(t, c, 2*time.Second)

	// 旧根目录的监听已撤掉，写文件不再产生事件
	writeFile(t, rootA, "a2.txt", "stale root")

	select {
	case msg := <-changed:
		t.Fatalf("event from a removed root: %s", msg.Payload)
	case <-time.After(300 * time.Millisecond):
	}
}
