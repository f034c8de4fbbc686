package mq

import (
	"context"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// gochannel 输出缓冲：去抖后的事件是突发的，给一点缓冲避免监听回调被订阅者拖住.
const goChannelBuffer = 256

// createGoChannel 创建进程内 pubsub，Publisher 与 Subscriber 是同一个实例.
func createGoChannel(_ context.Context, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ch := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: goChannelBuffer},
		logger,
	)

	return ch, ch, nil
}

// RegisterGoChannel 注册 gochannel 工厂函数.
func RegisterGoChannel() {
	RegisterFactory(GoChannel, createGoChannel)
}

func init() {
	RegisterGoChannel()
}
