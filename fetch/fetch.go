// Package fetch 提供带重试与熔断保护的远程数据抓取组件。
//
// 一次 Fetch 调用是一个完整的重试序列：序列开始前咨询熔断器一次，
// 被拦截时直接返回 ErrCircuitOpen，不发起任何网络调用；放行后最多
// 尝试 MaxRetries 次，首次尝试使用较短的 InitialTimeout，后续尝试
// 使用较长的 ExtendedTimeout（两档固定超时，不按几何级数增长），
// 失败重试间按 BackoffBaseDelay × 尝试次数做线性退避。
//
// 每次尝试的成败都会上报熔断器；ErrCircuitOpen 本身不计入失败
// （它阻止了尝试，而不是失败了一次尝试）。响应格式错误属于
// 永久性错误，立即中止序列并计一次失败。
//
// ## 基本使用
//
//	f, _ := fetch.New(&fetch.Config{MaxRetries: 3},
//	    fetch.WithProvider(provider),
//	    fetch.WithBreaker(brk),
//	    fetch.WithLogger(logger))
//
//	payload, err := f.Fetch(ctx, "sectors")
package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ceyewan/marketdata/clog"
)

// Provider 执行单次远程调用，由调用方通过 ctx 控制超时。
// 格式错误的响应应返回包装了 ErrPermanentData 的错误，
// 其余错误一律按瞬时错误处理
type Provider interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Fetcher 带重试与熔断保护的抓取接口
type Fetcher interface {
	// Fetch 执行一个完整的重试序列，返回原始载荷字节。
	// 可能返回 ErrCircuitOpen、ErrPermanentData、ErrExhausted
	Fetch(ctx context.Context, key string, opts ...CallOption) ([]byte, error)
}

// CallOption 单次 Fetch 调用的选项
type CallOption func(*callOptions)

type callOptions struct {
	extendedFirstAttempt bool
}

// WithExtendedFirstAttempt 首次尝试即使用 ExtendedTimeout。
// 后台重校验不阻塞任何调用方，没必要用激进的短超时
func WithExtendedFirstAttempt() CallOption {
	return func(o *callOptions) {
		o.extendedFirstAttempt = true
	}
}

// Config 抓取器配置
type Config struct {
	// MaxRetries 一个序列内的最大尝试次数（默认：3）
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// InitialTimeout 首次尝试的超时（默认：5s）
	InitialTimeout time.Duration `json:"initial_timeout" yaml:"initial_timeout" mapstructure:"initial_timeout"`

	// ExtendedTimeout 后续尝试的超时（默认：15s）
	ExtendedTimeout time.Duration `json:"extended_timeout" yaml:"extended_timeout" mapstructure:"extended_timeout"`

	// BackoffBaseDelay 线性退避基数，第 n 次失败后等待 n×BaseDelay（默认：500ms）
	BackoffBaseDelay time.Duration `json:"backoff_base_delay" yaml:"backoff_base_delay" mapstructure:"backoff_base_delay"`

	// RateLimit 客户端限速，每秒放行的序列数，0 表示不限速
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// RateBurst 限速突发容量（默认：1，仅 RateLimit > 0 时生效）
	RateBurst int `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialTimeout:   5 * time.Second,
		ExtendedTimeout:  15 * time.Second,
		BackoffBaseDelay: 500 * time.Millisecond,
	}
}

func (c *Config) setDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = 5 * time.Second
	}
	if c.ExtendedTimeout <= 0 {
		c.ExtendedTimeout = 15 * time.Second
	}
	if c.BackoffBaseDelay <= 0 {
		c.BackoffBaseDelay = 500 * time.Millisecond
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
}

// New 创建抓取器，必须通过 WithProvider 注入远程调用实现
func New(cfg *Config, opts ...Option) (Fetcher, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.provider == nil {
		return nil, ErrProviderRequired
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}
	if opt.sleep == nil {
		opt.sleep = sleepCtx
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	f := &retryingFetcher{
		cfg:      cfg,
		provider: opt.provider,
		breaker:  opt.breaker,
		logger:   opt.logger,
		sleep:    opt.sleep,
		limiter:  limiter,
	}
	f.initMetrics(opt.meter)

	return f, nil
}
