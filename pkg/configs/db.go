package configs

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type (
	DBType string
)

const (
	// SQLite 内嵌单文件库，守护进程的默认存储.
	SQLite DBType = "sqlite"
)

const (
	DefaultDatabaseFile = "index.db" // 默认索引库文件名（位于数据目录下）
	DefaultMaxOpenConns = 0          // 默认不限制打开连接数
	DefaultMaxIdleConns = 5          // 默认最大空闲连接数
)

// DBConfig 内容库配置.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=sqlite"`
	Path         string `mapstructure:"path"`           // 索引库文件路径；为空时使用 <data_dir>/index.db
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// GetDBType 返回数据库类型的字符串表示.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

// GetDSN 获取数据库连接串.索引库始终是本地文件.
func (c *DBConfig) GetDSN() string {
	p := c.GetPath()
	if p == "" {
		return ""
	}

	return fmt.Sprintf("file:%s", p)
}

// GetPath 返回索引库文件的绝对路径.
func (c *DBConfig) GetPath() string {
	if c.Path != "" {
		return c.Path
	}

	return filepath.Join(defaultDataDir(), DefaultDatabaseFile)
}

// setDefaults 设置数据库配置的默认值.
func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.path", "")
	v.SetDefault("db.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("db.max_idle_conns", DefaultMaxIdleConns)
}
