package configs

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultIPCSocketFile   = "engine.sock" // 套接字文件名（位于数据目录下）
	DefaultIPCDialTimeout  = 500           // 客户端单次连接超时（毫秒）
	DefaultIPCMaxRetries   = 3             // 客户端最大重试次数
	DefaultIPCRetryBaseMs  = 200           // 重试基础延迟（毫秒），按次数线性放大
	DefaultIPCReadTimeout  = 5             // 服务端单连接读超时（秒）
	DefaultIPCWriteTimeout = 5             // 服务端单连接写超时（秒）
)

// IPCConfig 命令通道配置.命令协议是行式的：一行请求、一行应答、连接即关.
type IPCConfig struct {
	SocketPath    string `mapstructure:"socket_path"` // 为空时使用 <data_dir>/engine.sock
	DialTimeoutMs int    `mapstructure:"dial_timeout_ms" rule:"min=1"`
	MaxRetries    int    `mapstructure:"max_retries"     rule:"min=1"`
	RetryBaseMs   int    `mapstructure:"retry_base_ms"   rule:"min=0"`
	ReadTimeoutS  int    `mapstructure:"read_timeout_s"  rule:"min=1"`
	WriteTimeoutS int    `mapstructure:"write_timeout_s" rule:"min=1"`
}

// GetSocketPath 返回套接字路径.
func (c *IPCConfig) GetSocketPath() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}

	return filepath.Join(defaultDataDir(), DefaultIPCSocketFile)
}

// GetDialTimeout 返回单次连接超时.
func (c *IPCConfig) GetDialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

// GetRetryBase 返回重试基础延迟.
func (c *IPCConfig) GetRetryBase() time.Duration {
	return time.Duration(c.RetryBaseMs) * time.Millisecond
}

// setDefaults 设置 IPC 配置的默认值.
func (c *IPCConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ipc.socket_path", "")
	v.SetDefault("ipc.dial_timeout_ms", DefaultIPCDialTimeout)
	v.SetDefault("ipc.max_retries", DefaultIPCMaxRetries)
	v.SetDefault("ipc.retry_base_ms", DefaultIPCRetryBaseMs)
	v.SetDefault("ipc.read_timeout_s", DefaultIPCReadTimeout)
	v.SetDefault("ipc.write_timeout_s", DefaultIPCWriteTimeout)
}
