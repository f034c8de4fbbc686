// Package mq 提供基于 Watermill 库的统一消息总线操作接口.
// 支持发布/订阅模式，并通过工厂模式抽象不同的实现.
//
// 守护进程是单进程的，默认实现是进程内 gochannel；
// 工厂注册表保留着，以后接外部 broker 只需要注册一个新工厂.
//
// 使用示例：
//
//	ctx := context.Background()
//	client, err := mq.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 发布消息
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
//
//	// 订阅主题
//	ch, err := client.Subscribe(ctx, "topic")
package mq

import (
	"context"
	"fmt"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	nlog "github.com/yeisme/filesentry/pkg/log"
)

// BusType 总线实现类型.
type BusType string

const (
	// GoChannel 进程内事件总线（默认）.
	GoChannel BusType = "gochannel"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories = map[BusType]Factory{}
)

// RegisterFactory 注册指定 BusType 的工厂.
func RegisterFactory(t BusType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的总线实现类型列表.
func GetRegisteredMQTypes() []BusType {
	types := make([]BusType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// New 创建事件总线客户端，默认使用 gochannel 实现.
func New(ctx context.Context) (*Client, error) {
	return NewWithType(ctx, GoChannel)
}

// NewWithType 按类型创建事件总线客户端.
func NewWithType(ctx context.Context, t BusType) (*Client, error) {
	factory, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("unsupported bus type: %s", t)
	}

	logger := &zerologAdapter{l: nlog.Logger()}

	pub, sub, err := factory(ctx, logger)
	if err != nil {
		return nil, err
	}

	return &Client{publisher: pub, subscriber: sub}, nil
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		if err := c.publisher.Publish(topic, m); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	ch, err := c.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// Close 关闭资源.
func (c *Client) Close() error {
	var err error

	if c.publisher != nil {
		if e := c.publisher.Close(); e != nil {
			err = e
		}
	}

	if c.subscriber != nil {
		if e := c.subscriber.Close(); e != nil {
			err = e
		}
	}

	return err
}
