package cache

import (
	"time"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
	"github.com/ceyewan/marketdata/store"
)

// Option 缓存可选配置
type Option func(*options)

type options struct {
	store  store.Store
	logger clog.Logger
	meter  metrics.Meter
	now    func() time.Time
}

// WithStore 注入底层持久化存储，必选
func WithStore(st store.Store) Option {
	return func(o *options) {
		o.store = st
	}
}

// WithLogger 注入日志实例，自动追加 cache 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("cache")
		}
	}
}

// WithMeter 注入指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock 注入时间源，仅用于测试
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
