package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 发布消息时建议填充 TraceID、OccurredAt、Producer，便于追踪与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 关联 ID（ULID），同一次扫描/同一串事件共享.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者标识（crawler、watcher、scheduler 等）.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件事件领域 --------------------------

// FileEventPayload 单个文件的变化事件.
type FileEventPayload struct {
	// Path 文件绝对路径.
	Path string `json:"path"`
	// Op 触发来源：create、write、rename、remove、walk.
	Op string `json:"op,omitempty"`
	// Root 所属的爬取根目录（全量扫描时填充）.
	Root string `json:"root,omitempty"`
}

// -------------------------- 扫描领域 --------------------------

// CrawlPayload 一次根目录扫描的元信息.
type CrawlPayload struct {
	Root string `json:"root"`
	// Files 扫描结束时的累计文件数（started 事件为 0）.
	Files int64 `json:"files,omitempty"`
}

// -------------------------- 索引领域 --------------------------

// IndexCompletedPayload 单个文件流水线执行完毕.
type IndexCompletedPayload struct {
	Path string `json:"path"`
	// Tags 本次流水线附加的标签（规则+分类器）.
	Tags []string `json:"tags,omitempty"`
}
