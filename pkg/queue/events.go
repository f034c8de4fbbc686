package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 事件发布方的最小接口，storage/mq 的 Client 满足它.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishFileChanged 发布 fs.file.changed 事件.
// 监听器在去抖窗口结束后调用，通知索引流水线处理该路径.
func PublishFileChanged(ctx context.Context, pub Publisher, payload FileEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileChanged, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileChanged, msg)
}

// ParseFileChanged 将 Watermill 消息解析为强类型 Envelope（FileEventPayload）.
func ParseFileChanged(msg *message.Message) (Message[FileEventPayload], error) {
	return ParseWatermillMessage[FileEventPayload](msg)
}

// PublishFileDiscovered 发布 fs.file.discovered 事件.全量扫描发现文件时调用.
func PublishFileDiscovered(ctx context.Context, pub Publisher, payload FileEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileDiscovered, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileDiscovered, msg)
}

// PublishFileRemoved 发布 fs.file.removed 事件.
// 目前只有日志消费者；FileRecord 不随之删除，过期条目由重建清理.
func PublishFileRemoved(ctx context.Context, pub Publisher, payload FileEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileRemoved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicFileRemoved, msg)
}

// PublishCrawlStarted 发布 fs.crawl.started 事件.
func PublishCrawlStarted(ctx context.Context, pub Publisher, payload CrawlPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCrawlStarted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicCrawlStarted, msg)
}

// PublishCrawlFinished 发布 fs.crawl.finished 事件.
func PublishCrawlFinished(ctx context.Context, pub Publisher, payload CrawlPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCrawlFinished, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicCrawlFinished, msg)
}

// PublishIndexCompleted 发布 fs.index.completed 事件.
// 单个文件的索引流水线成功走完后调用，给状态面板和后续消费者用.
func PublishIndexCompleted(ctx context.Context, pub Publisher, payload IndexCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicIndexCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicIndexCompleted, msg)
}
