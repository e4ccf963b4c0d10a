// Package store 提供字符串键值的持久化存储抽象。
//
// 缓存层（cache 包）只依赖本包的 Store 接口；数据是否跨进程重启存活
// 取决于所选驱动：
//   - "redis"：基于 go-redis，通过 connector 注入连接，适合生产
//   - "file"：每个 key 一个 JSON 文档，临时文件 + rename 保证原子替换
//   - "memory"：基于 otter 的进程内存储，适合测试与嵌入场景
//
// 基本使用：
//
//	st, _ := store.New(&store.Config{Driver: store.DriverFile, Dir: "/var/lib/marketdata"},
//	    store.WithLogger(logger))
//	defer st.Close()
//
//	_ = st.Set(ctx, "sectors", payload)
//	val, err := st.Get(ctx, "sectors") // 未命中返回 ErrNotFound
package store

import (
	"context"

	"github.com/ceyewan/marketdata/clog"
)

// 驱动名称
const (
	DriverRedis  = "redis"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Store 字符串键值存储接口，方法均并发安全
type Store interface {
	// Get 读取 key 对应的值，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set 原子地写入（替换）key 对应的值
	Set(ctx context.Context, key string, value string) error

	// Remove 删除 key，key 不存在时不算错误
	Remove(ctx context.Context, key string) error

	// Close 释放驱动持有的资源（借用的连接器不会被关闭）
	Close() error
}

// New 根据配置创建存储实例
func New(cfg *Config, opts ...Option) (Store, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}

	switch cfg.Driver {
	case DriverRedis:
		if opt.redisConn == nil {
			return nil, ErrRedisConnRequired
		}
		return newRedisStore(cfg, opt.redisConn, opt.logger)
	case DriverFile:
		return newFileStore(cfg, opt.logger)
	case DriverMemory, "":
		return newMemoryStore(cfg, opt.logger)
	default:
		return nil, ErrUnknownDriver
	}
}
