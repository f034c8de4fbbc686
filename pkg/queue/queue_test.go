package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filesentry/pkg/queue"
)

// capturingPublisher 记录发布调用，不做真正投递.
type capturingPublisher struct {
	topic string
	msgs  []*message.Message
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)

	return nil
}

// TestFileChangedRoundTrip 文件事件发布后可以解析回等价的信封.
func TestFileChangedRoundTrip(t *testing.T) {
	pub := &capturingPublisher{}
	traceID := queue.NewTraceID()

	payload := queue.FileEventPayload{Path: "/home/u/Documents/a.txt", Op: "write", Root: "/home/u/Documents"}

	err := queue.PublishFileChanged(context.Background(), pub, payload,
		queue.WithTraceID(traceID), queue.WithProducer("watcher"))
	if err != nil {
		t.Fatalf("PublishFileChanged: %v", err)
	}

	if pub.topic != queue.TopicFileChanged {
		t.Errorf("topic = %q, want %q", pub.topic, queue.TopicFileChanged)
	}

	if len(pub.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.msgs))
	}

	env, err := queue.ParseFileChanged(pub.msgs[0])
	if err != nil {
		t.Fatalf("ParseFileChanged: %v", err)
	}

	if env.Payload != payload {
		t.Errorf("payload = %+v, want %+v", env.Payload, payload)
	}

	if env.Header.TraceID != traceID || env.Header.Producer != "watcher" {
		t.Errorf("header = %+v", env.Header)
	}

	if env.Header.Topic != queue.TopicFileChanged || env.Header.Version != queue.PayloadVersionV1 {
		t.Errorf("header = %+v", env.Header)
	}
}

// TestWatermillMessageMetadata 信封元数据同步写入 watermill 消息头.
func TestWatermillMessageMetadata(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicCrawlStarted,
		queue.CrawlPayload{Root: "/data"},
		queue.WithProducer("crawler"))
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	if msg.UUID == "" {
		t.Error("message UUID is empty")
	}

	if got := msg.Metadata.Get("topic"); got != queue.TopicCrawlStarted {
		t.Errorf("metadata topic = %q", got)
	}

	if got := msg.Metadata.Get("producer"); got != "crawler" {
		t.Errorf("metadata producer = %q", got)
	}

	if _, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get("occurred_at")); err != nil {
		t.Errorf("occurred_at not RFC3339Nano: %v", err)
	}
}

// TestNewTraceIDOrdered ULID 追踪 ID 非空且唯一.
func TestNewTraceIDOrdered(t *testing.T) {
	a := queue.NewTraceID()
	b := queue.NewTraceID()

	if a == "" || b == "" {
		t.Fatal("empty trace id")
	}

	if a == b {
		t.Fatal("trace ids collide")
	}
}
