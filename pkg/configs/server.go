package configs

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultReloadConfig = true  // 是否启用配置热重载
	DefaultDebug        = false // 是否启用调试模式

	// appDirName 本地数据目录名，位于用户主目录之下.
	appDirName = ".filesentry"
)

type (
	// ServerConfig 守护进程自身配置.
	ServerConfig struct {
		DataDir      string `mapstructure:"data_dir"` // 本地数据目录，索引库、隔离区和套接字都在其下
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
	}
)

// GetDataDir 返回本地数据目录，未配置时落到用户主目录下的 .filesentry.
func (s *ServerConfig) GetDataDir() string {
	if s.DataDir != "" {
		return s.DataDir
	}

	return defaultDataDir()
}

// GetQuarantineDir 返回隔离区目录（quarantine 规则动作的目的地）.
func (s *ServerConfig) GetQuarantineDir() string {
	return filepath.Join(s.GetDataDir(), "quarantine")
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.data_dir", defaultDataDir())
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// 没有主目录的环境（容器等）退回当前目录
		return appDirName
	}

	return filepath.Join(home, appDirName)
}
