package sectors

import (
	"time"

	"github.com/ceyewan/marketdata/breaker"
	"github.com/ceyewan/marketdata/cache"
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/fetch"
	"github.com/ceyewan/marketdata/metrics"
)

// Option 数据服务可选配置
type Option func(*options)

type options struct {
	cache   cache.Cache
	fetcher fetch.Fetcher
	breaker breaker.Breaker
	logger  clog.Logger
	meter   metrics.Meter
	now     func() time.Time
}

// WithCache 注入缓存层，必选
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithFetcher 注入抓取器，必选
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithBreaker 注入熔断器，用于手动刷新时重置。
// 应与 fetch.WithBreaker 传入同一个实例
func WithBreaker(b breaker.Breaker) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// WithLogger 注入日志实例，自动追加 sectors 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("sectors")
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
