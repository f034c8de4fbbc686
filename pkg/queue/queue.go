// Package queue 管理消息队列，解耦"发现文件"与"索引文件"两个环节.
//
// 概览
//   - 采用发布/订阅模型：爬虫/监听器发布文件事件，索引流水线订阅消费
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic）
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "fs.file.changed",
//	    "trace_id": "01J8...ULID",
//	    "producer": "watcher",
//	    "occurred_at": "2026-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { "path": "/home/u/Documents/a.txt", "op": "write" }
//	}
//
// 发布/订阅示例
//
//	msg, _ := queue.NewWatermillMessage(
//	  queue.TopicFileChanged,
//	  queue.FileEventPayload{Path: "/tmp/a.txt", Op: "write"},
//	  queue.WithProducer("watcher"),
//	)
//	_ = client.Publish(ctx, queue.TopicFileChanged, msg)
//
//	ch, _ := client.Subscribe(ctx, queue.TopicFileChanged)
//	for m := range ch {
//	    env, _ := queue.ParseWatermillMessage[queue.FileEventPayload](m)
//	    // 使用 env.Header / env.Payload ...
//	    m.Ack()
//	}
package queue

import (
	"math/rand"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// NewTraceID 生成一个 ULID 追踪 ID（时间有序，方便日志排查）.
func NewTraceID() string {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
