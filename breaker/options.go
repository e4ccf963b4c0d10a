package breaker

import (
	"time"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
)

// Option 熔断器可选配置
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
	now    func() time.Time
}

// WithLogger 注入日志实例，自动追加 breaker 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
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
