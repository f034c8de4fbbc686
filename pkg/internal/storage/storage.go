// Package storage 聚合守护进程的存储资源：内容库（sqlite）与进程内事件总线.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	dbClient := mgr.GetDBClient()
//	mqClient := mgr.GetMQClient()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/filesentry/pkg/configs"
	dbc "github.com/yeisme/filesentry/pkg/internal/storage/db"
	mqc "github.com/yeisme/filesentry/pkg/internal/storage/mq"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB *dbc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		if dbi, e := dbc.New(ctx, &cfg.DB); e != nil {
			err = e

			return
		} else {
			m.DB = dbi
		}

		// MQ
		if mqi, e := mqc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取事件总线客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
