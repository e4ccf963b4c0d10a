package store

import (
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/connector"
)

// Option 存储组件选项函数
type Option func(*options)

type options struct {
	logger    clog.Logger
	redisConn connector.RedisConnector
}

// WithLogger 注入日志记录器，内部自动追加 namespace: "store"
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("store")
		}
	}
}

// WithRedisConnector 注入 Redis 连接器（仅 redis 驱动需要）
//
// 连接器的生命周期由调用方管理，Store.Close 不会关闭它。
func WithRedisConnector(conn connector.RedisConnector) Option {
	return func(o *options) {
		o.redisConn = conn
	}
}
