package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultDebounceMs     = 500 // 文件事件去抖窗口（毫秒）
	DefaultWalkRPS        = 200 // 全量扫描每秒索引的文件数上限（0 表示不限速）
	DefaultWalkBurst      = 50  // 扫描限速的突发容量
	DefaultRescanInterval = 0   // 周期性全量重扫间隔（分钟），0 表示关闭
)

// CrawlerConfig 爬取与监听配置.
type CrawlerConfig struct {
	// Locations 被纳入索引的根目录列表.
	// 支持特殊名称 Documents、Pictures、Desktop（解析为平台路径），
	// 其余必须是存在的绝对路径，不满足的条目会被静默丢弃.
	Locations []string `mapstructure:"locations"`
	// DebounceMs 同一路径连续事件的去抖窗口.
	DebounceMs int `mapstructure:"debounce_ms" rule:"min=0"`
	// WalkRPS 全量扫描时提交给索引流水线的速率上限，防止 IO 打满.
	WalkRPS   float64 `mapstructure:"walk_rps"   rule:"min=0"`
	WalkBurst int     `mapstructure:"walk_burst" rule:"min=0"`
	// RescanIntervalMinutes 周期性全量重扫（gocron 任务）的间隔.
	RescanIntervalMinutes int `mapstructure:"rescan_interval_minutes" rule:"min=0"`
}

// GetDebounce 返回去抖窗口作为 time.Duration.
func (c *CrawlerConfig) GetDebounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// GetRescanInterval 返回重扫间隔作为 time.Duration.
func (c *CrawlerConfig) GetRescanInterval() time.Duration {
	return time.Duration(c.RescanIntervalMinutes) * time.Minute
}

// setDefaults 设置爬取配置的默认值.
func (c *CrawlerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.locations", []string{"Documents"})
	v.SetDefault("crawler.debounce_ms", DefaultDebounceMs)
	v.SetDefault("crawler.walk_rps", DefaultWalkRPS)
	v.SetDefault("crawler.walk_burst", DefaultWalkBurst)
	v.SetDefault("crawler.rescan_interval_minutes", DefaultRescanInterval)
}
