// Package config 提供统一的配置加载能力。
// 基于 Viper 实现，支持 YAML 文件、.env 文件与环境变量三级来源，
// 并通过 fsnotify 监听文件变化实现热更新。
//
// 配置优先级：环境变量 > .env 文件 > 配置文件。
//
// 基本使用：
//
//	loader, _ := config.New(&config.Config{
//	    Name:      "marketdata",
//	    Paths:     []string{".", "./config"},
//	    EnvPrefix: "MARKETDATA",
//	})
//	if err := loader.Load(ctx); err != nil {
//	    panic(err)
//	}
//
//	var opts Options
//	_ = loader.Unmarshal(&opts)
package config

import (
	"context"
	"strings"
	"time"
)

// Loader 配置加载器
type Loader interface {
	// Load 从所有来源加载配置并启动文件监听
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 订阅指定配置 key 的变更，通过 ctx 取消订阅
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Timestamp time.Time
}

// Config 加载器自身的配置
type Config struct {
	Name      string   // 配置文件名（不含扩展名），默认 "config"
	Paths     []string // 搜索路径，默认 [".", "./config"]
	FileType  string   // 文件类型，默认 "yaml"
	EnvPrefix string   // 环境变量前缀，默认 "MARKETDATA"
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "config"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "MARKETDATA"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	return nil
}

// New 创建配置加载器，cfg 为 nil 时使用默认配置
func New(cfg *Config) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newLoader(cfg)
}
