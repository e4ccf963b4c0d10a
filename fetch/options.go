package fetch

import (
	"context"
	"time"

	"github.com/ceyewan/marketdata/breaker"
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
)

// Option 抓取器可选配置
type Option func(*options)

type options struct {
	provider Provider
	breaker  breaker.Breaker
	logger   clog.Logger
	meter    metrics.Meter
	sleep    func(ctx context.Context, d time.Duration) error
}

// WithProvider 注入远程调用实现，必选
func WithProvider(p Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithBreaker 注入熔断器，未注入时不做熔断保护
func WithBreaker(b breaker.Breaker) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// WithLogger 注入日志实例，自动追加 fetch 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("fetch")
		}
	}
}

// WithMeter 注入指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithSleep 注入退避等待实现，仅用于测试
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}
