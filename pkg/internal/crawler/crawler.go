// Package crawler 负责"发现文件"：全量扫描 + fsnotify 实时监听.
// 发现的路径以事件形式投递到进程内总线，由索引流水线订阅消费；
// 爬虫自己不碰数据库.
package crawler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yeisme/filesentry/pkg/configs"
	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/storage/mq"
	nlog "github.com/yeisme/filesentry/pkg/log"
	"github.com/yeisme/filesentry/pkg/metrics"
	"github.com/yeisme/filesentry/pkg/queue"
)

// specialLocations 配置里允许的特殊目录名，解析为用户主目录下的平台路径.
var specialLocations = map[string]string{
	"Documents": "Documents",
	"Pictures":  "Pictures",
	"Desktop":   "Desktop",
}

// Crawler 扫描配置的根目录并持续监听变化.
type Crawler struct {
	mqClient *mq.Client
	config   configs.CrawlerConfig

	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	limiter   *rate.Limiter

	// crawling 正在进行中的根目录扫描数
	crawling atomic.Int64

	// runCtx 爬虫的生命周期上下文：监听循环和所有后台遍历都挂在它下面，
	// Stop/Configure 取消它即可联动终止全部子任务.
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 从 context 获取依赖实例并创建爬虫.
func New(c context.Context) (*Crawler, error) {
	mqc := ctxPkg.GetMQClient(c)
	if mqc == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	cfg := configs.GetConfig().Crawler

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.WalkRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WalkRPS), max(cfg.WalkBurst, 1))
	}

	return &Crawler{
		mqClient:  mqc,
		config:    cfg,
		watcher:   watcher,
		debouncer: NewDebouncer(cfg.GetDebounce()),
		limiter:   limiter,
	}, nil
}

// Start 启动监听循环并发起首次全量扫描.扫描在后台进行，Start 立即返回.
func (c *Crawler) Start(ctx context.Context) {
	c.runCtx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.watchLoop(c.runCtx)
	}()

	c.Rescan()
}

// Configure 按当前配置重建爬虫：撤掉现有监听和挂起的去抖回调，
// 重新解析根目录并发起全量扫描.REBUILD 命令和目录列表变化都走这里，
// 从配置里移除的根不会留下残余监听.
func (c *Crawler) Configure(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	_ = c.watcher.Close()
	c.debouncer.Stop()
	c.wg.Wait()

	cfg := configs.GetConfig().Crawler

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	c.watcher = watcher
	c.config = cfg
	c.debouncer = NewDebouncer(cfg.GetDebounce())

	c.limiter = nil
	if cfg.WalkRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.WalkRPS), max(cfg.WalkBurst, 1))
	}

	c.Start(ctx)

	return nil
}

// Rescan 对所有配置根目录发起一次全量扫描（后台执行）.
// 遍历始终挂在爬虫自身的生命周期上下文下，Stop/Configure 能取消进行中的扫描；
// 爬虫未启动（或已停止）时调用是空操作.
func (c *Crawler) Rescan() {
	ctx := c.runCtx
	if ctx == nil || ctx.Err() != nil {
		nlog.Logger().Warn().Msg("crawler not running, rescan skipped")

		return
	}

	roots := c.resolveLocations()
	if len(roots) == 0 {
		nlog.Logger().Warn().Msg("no valid crawl locations configured")

		return
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		g, gctx := errgroup.WithContext(ctx)

		for _, root := range roots {
			root := root
			g.Go(func() error {
				return c.crawlRoot(gctx, root)
			})
		}

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			nlog.Logger().Error().Err(err).Msg("crawl finished with errors")
		}
	}()
}

// IsCrawling 是否有根目录扫描在进行中.
func (c *Crawler) IsCrawling() bool {
	return c.crawling.Load() > 0
}

// Stop 停止监听与去抖，等待后台扫描退出.
func (c *Crawler) Stop() {
	if c.cancel != nil {
		c.cancel()
	}

	_ = c.watcher.Close()
	c.debouncer.Stop()
	c.wg.Wait()
}

// resolveLocations 将配置的目录名解析为存在的绝对路径.
// 特殊名称相对用户主目录展开；其余必须是存在的绝对路径，不满足的静默丢弃.
func (c *Crawler) resolveLocations() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("cannot resolve user home directory")
	}

	var roots []string

	for _, loc := range c.config.Locations {
		path := loc
		if sub, ok := specialLocations[loc]; ok && home != "" {
			path = filepath.Join(home, sub)
		}

		if !filepath.IsAbs(path) {
			continue
		}

		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}

		roots = append(roots, path)
	}

	return roots
}

// crawlRoot 遍历单个根目录：目录加入监听，文件发布 fs.file.changed 事件.
// 受速率限制保护，防止大目录一次性打满 IO.
func (c *Crawler) crawlRoot(ctx context.Context, root string) error {
	c.crawling.Add(1)
	metrics.CrawlsInFlight.Inc()

	defer func() {
		c.crawling.Add(-1)
		metrics.CrawlsInFlight.Dec()
	}()

	traceID := queue.NewTraceID()
	nlog.Logger().Info().Str("root", root).Str("trace_id", traceID).Msg("crawl started")

	if err := queue.PublishCrawlStarted(ctx, c.mqClient, queue.CrawlPayload{Root: root},
		queue.WithTraceID(traceID), queue.WithProducer("crawler")); err != nil {
		return err
	}

	var files int64

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// 单个子目录不可读不终止整轮扫描
			nlog.Logger().Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")

			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if err := c.watcher.Add(path); err != nil {
				nlog.Logger().Debug().Err(err).Str("path", path).Msg("cannot watch directory")
			}

			return nil
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		files++

		return queue.PublishFileDiscovered(ctx, c.mqClient,
			queue.FileEventPayload{Path: path, Op: "walk", Root: root},
			queue.WithTraceID(traceID), queue.WithProducer("crawler"))
	})
	if walkErr != nil && ctx.Err() == nil {
		nlog.Logger().Error().Err(walkErr).Str("root", root).Msg("crawl aborted")

		return walkErr
	}

	nlog.Logger().Info().Str("root", root).Int64("files", files).Msg("crawl finished")

	return queue.PublishCrawlFinished(ctx, c.mqClient, queue.CrawlPayload{Root: root, Files: files},
		queue.WithTraceID(traceID), queue.WithProducer("crawler"))
}

// watchLoop 消费 fsnotify 事件：
//   - 新建目录加入监听（fsnotify 不递归）
//   - 文件的 create/write 经去抖后发布 fs.file.changed
//   - remove/rename 发布 fs.file.removed
func (c *Crawler) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}

			c.handleEvent(ctx, event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}

			nlog.Logger().Warn().Err(err).Msg("watcher error")
		}
	}
}

func (c *Crawler) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := c.watcher.Add(path); err != nil {
				nlog.Logger().Debug().Err(err).Str("path", path).Msg("cannot watch directory")
			}

			return
		}

		c.scheduleIndex(ctx, path, "create")
	case event.Has(fsnotify.Write):
		c.scheduleIndex(ctx, path, "write")
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// rename 的新路径会以 create 事件到达，这里只上报旧路径消失
		if err := queue.PublishFileRemoved(ctx, c.mqClient,
			queue.FileEventPayload{Path: path, Op: "remove"},
			queue.WithProducer("watcher")); err != nil && ctx.Err() == nil {
			nlog.Logger().Error().Err(err).Str("path", path).Msg("failed to publish remove event")
		}
	}
}

// scheduleIndex 经去抖窗口后发布变化事件.窗口内的重复事件合并为一次.
func (c *Crawler) scheduleIndex(ctx context.Context, path, op string) {
	c.debouncer.Trigger(path, func() {
		if ctx.Err() != nil {
			return
		}

		if err := queue.PublishFileChanged(ctx, c.mqClient,
			queue.FileEventPayload{Path: path, Op: op},
			queue.WithProducer("watcher")); err != nil && ctx.Err() == nil {
			nlog.Logger().Error().Err(err).Str("path", path).Msg("failed to publish change event")
		}
	})
}
