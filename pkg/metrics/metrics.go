// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集索引流水线和守护进程自身的指标.
//
// Example:
//
//	import "github.com/yeisme/filesentry/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.IndexedFiles.Inc()
//	metrics.RuleActions.WithLabelValues("tag").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filesentry/pkg/configs"
)

// 全局指标变量.
var (
	// IndexedFiles 已执行的索引操作计数（同一路径重复索引重复计数）.
	IndexedFiles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filesentry_indexed_files_total",
			Help: "Total number of index pipeline runs",
		},
	)

	// RuleActions 规则动作计数，按动作类型分.
	RuleActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesentry_rule_actions_total",
			Help: "Total number of rule actions executed",
		},
		[]string{"action"},
	)

	// IPCCommands IPC命令计数，按命令分.
	IPCCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesentry_ipc_commands_total",
			Help: "Total number of IPC commands served",
		},
		[]string{"command"},
	)

	// CrawlsInFlight 正在进行的全量扫描数.
	CrawlsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "filesentry_crawls_in_flight",
			Help: "Number of root walks currently running",
		},
	)

	// ParseFailures 内容提取失败计数，按解析器分.
	ParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesentry_parse_failures_total",
			Help: "Total number of content extraction failures",
		},
		[]string{"parser"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(IndexedFiles, RuleActions, IPCCommands, CrawlsInFlight, ParseFailures)

	return nil
}

// StartMetricsServer 启动Metrics HTTP服务器（仅监听本地地址）.
func StartMetricsServer(config configs.MetricsConfig) *http.Server {
	if !config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
	}

	srv := &http.Server{
		Addr:              config.Endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// 端口被占用等错误不致命，守护进程继续跑
		_ = srv.ListenAndServe()
	}()

	return srv
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
