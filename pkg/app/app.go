// Package app 提供守护进程的初始化和组装：配置、存储、服务、爬虫、IPC.
package app

import (
	contextPkg "context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filesentry/pkg/configs"
	"github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/crawler"
	"github.com/yeisme/filesentry/pkg/internal/ipc"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
	"github.com/yeisme/filesentry/pkg/internal/storage"
	"github.com/yeisme/filesentry/pkg/log"
	"github.com/yeisme/filesentry/pkg/metrics"
	"github.com/yeisme/filesentry/pkg/queue"
	"github.com/yeisme/filesentry/pkg/scheduler"
)

// rescanJobName 周期性全量重扫任务名.
const rescanJobName = "full-rescan"

// App 守护进程的组装根：持有全部服务与后台组件.
type App struct {
	config  *configs.AppConfig
	ctx     contextPkg.Context
	manager *storage.Manager

	// runCtx Run 里由信号派生的上下文，IPC 触发的后台任务挂在它下面，
	// 保证 SIGINT/SIGTERM 能联动取消重建扫描.
	runCtx contextPkg.Context

	indexer  *service.IndexerService
	search   *service.SearchService
	rules    *service.RulesEngineService
	partners *service.PartnerService
	undo     *service.UndoService

	crawler       *crawler.Crawler
	sched         *scheduler.Scheduler
	ipcServer     *ipc.Server
	metricsServer *http.Server
}

// NewApp 初始化配置与存储，组装全部服务.初始化失败直接退出进程.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	log.Init()

	// 初始化监控
	config := configs.GetConfig()
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	if err := manager.GetDBClient().Initialize(); err != nil {
		fmt.Printf("Error initializing schema: %v\n", err)
		os.Exit(1)
	}

	ctx = context.WithStorageManager(ctx, manager)

	// 服务装配：标签 -> 审计 -> 分类/规则/实体 -> 索引流水线
	tags := service.NewTagService(ctx)
	actionLog := service.NewActionLogService(ctx)
	ai := service.NewAIService(ctx, tags, nil)
	partners := service.NewPartnerService(ctx)
	rules := service.NewRulesEngineService(ctx, tags, actionLog)
	indexer := service.NewIndexerService(ctx, rules, ai, partners, actionLog)
	search := service.NewSearchService(ctx)
	undo := service.NewUndoService(ctx, tags)

	fsCrawler, err := crawler.New(ctx)
	if err != nil {
		fmt.Printf("Error initializing crawler: %v\n", err)
		os.Exit(1)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	a := &App{
		config:   config,
		ctx:      ctx,
		manager:  manager,
		indexer:  indexer,
		search:   search,
		rules:    rules,
		partners: partners,
		undo:     undo,
		crawler:  fsCrawler,
		sched:    sched,
	}
	a.ipcServer = ipc.NewServer(a)

	return a
}

// Run 启动全部后台组件并阻塞到收到 SIGINT/SIGTERM，然后优雅停机.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.runCtx = ctx

	if err := a.startConsumers(ctx); err != nil {
		return err
	}

	if err := a.ipcServer.Start(ctx); err != nil {
		return err
	}

	if a.config.Metrics.Enabled {
		a.metricsServer = metrics.StartMetricsServer(a.config.Metrics)
	}

	if interval := a.config.Crawler.GetRescanInterval(); interval > 0 {
		err := a.sched.AddInterval(ctx, rescanJobName, interval, func(_ contextPkg.Context) {
			a.crawler.Rescan()
		})
		if err != nil {
			return err
		}

		a.sched.Start()
	}

	a.crawler.Start(ctx)

	log.Logger().Info().Msg("filesentry engine started")

	<-ctx.Done()

	log.Logger().Info().Msg("shutting down")

	a.crawler.Stop()
	a.ipcServer.Stop()
	_ = a.sched.Stop()

	if a.metricsServer != nil {
		_ = a.metricsServer.Close()
	}

	return a.manager.GetMQClient().Close()
}

// startConsumers 订阅文件事件主题，驱动索引流水线.
// 监听器事件和全量扫描事件走同一条流水线；单条消息处理失败只记日志并 Ack：
// 索引是幂等的，路径会在下次变化或重扫时重试.
func (a *App) startConsumers(ctx contextPkg.Context) error {
	mqClient := a.manager.GetMQClient()

	changed, err := mqClient.Subscribe(ctx, queue.TopicFileChanged)
	if err != nil {
		return err
	}

	discovered, err := mqClient.Subscribe(ctx, queue.TopicFileDiscovered)
	if err != nil {
		return err
	}

	removed, err := mqClient.Subscribe(ctx, queue.TopicFileRemoved)
	if err != nil {
		return err
	}

	index := func(msg *message.Message) {
		env, err := queue.ParseFileChanged(msg)
		if err != nil {
			log.Logger().Error().Err(err).Msg("malformed file event")
			msg.Ack()

			return
		}

		if err := a.indexer.IndexFile(a.ctx, env.Payload.Path); err != nil {
			log.Logger().Error().Err(err).Str("path", env.Payload.Path).Msg("index pipeline failed")
		} else {
			_ = queue.PublishIndexCompleted(a.ctx, mqClient,
				queue.IndexCompletedPayload{Path: env.Payload.Path},
				queue.WithTraceID(env.Header.TraceID), queue.WithProducer("indexer"))
		}

		msg.Ack()
	}

	go func() {
		for msg := range changed {
			index(msg)
		}
	}()

	go func() {
		for msg := range discovered {
			index(msg)
		}
	}()

	go func() {
		for msg := range removed {
			env, err := queue.ParseWatermillMessage[queue.FileEventPayload](msg)
			if err == nil {
				_ = a.indexer.RemoveFile(a.ctx, env.Payload.Path)
			}

			msg.Ack()
		}
	}()

	return nil
}

// -------------------------- ipc.Engine 实现 --------------------------

// stateLabel 对外报告的引擎状态词汇：扫描进行中为 Indexing，否则 Idle.
func stateLabel(crawling bool) string {
	if crawling {
		return "Indexing"
	}

	return "Idle"
}

// Status 返回引擎运行状态.
func (a *App) Status(ctx contextPkg.Context) (ipc.EngineStatus, error) {
	count, err := a.indexer.Count(ctx)
	if err != nil {
		return ipc.EngineStatus{}, err
	}

	crawling := a.crawler.IsCrawling()

	return ipc.EngineStatus{
		State:        stateLabel(crawling),
		IndexedCount: count,
		IsCrawling:   crawling,
	}, nil
}

// Search 全文检索.
func (a *App) Search(ctx contextPkg.Context, query string) []service.FileResult {
	return a.search.Search(ctx, query)
}

// Rebuild 清空内容库、失效内存缓存并按当前配置重建爬虫.
// 走 Configure 而不是单纯 Rescan：配置里撤掉的根目录监听会被一并清理，
// 重扫挂在 Run 的信号上下文下，停机能取消进行中的遍历.
func (a *App) Rebuild(ctx contextPkg.Context) error {
	if err := a.manager.GetDBClient().Rebuild(); err != nil {
		return err
	}

	a.rules.Invalidate()
	a.partners.Invalidate()

	runCtx := a.runCtx
	if runCtx == nil {
		runCtx = a.ctx
	}

	return a.crawler.Configure(runCtx)
}

// Undo 撤销最近一次可逆动作.
func (a *App) Undo(ctx contextPkg.Context) error {
	_, err := a.undo.UndoLast(ctx)

	return err
}

// Rules 返回当前生效的自动化规则.
func (a *App) Rules(ctx contextPkg.Context) ([]model.Rule, error) {
	return a.rules.Rules(ctx)
}
