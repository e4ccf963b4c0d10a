package connector

import (
	"time"

	"github.com/ceyewan/marketdata/xerrors"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	// Name 连接器名称，用于日志与指标（默认 "default"）
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Addr 连接地址，如 "127.0.0.1:6379"，必填
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Password 认证密码，可选
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// DB 数据库编号（默认 0）
	DB int `json:"db" yaml:"db" mapstructure:"db"`

	// PoolSize 连接池大小（默认 10）
	PoolSize int `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`

	// MinIdleConns 最小空闲连接数（默认 2）
	MinIdleConns int `json:"min_idle_conns" yaml:"min_idle_conns" mapstructure:"min_idle_conns"`

	// DialTimeout 建连超时（默认 5s）
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout 读取超时（默认 3s）
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout 写入超时（默认 3s）
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

func (c *RedisConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

func (c *RedisConfig) validate() error {
	if c.Addr == "" {
		return xerrors.New("addr is required")
	}
	return nil
}
