// Package breaker 提供基于连续失败计数的熔断器组件。
//
// 与按失败率统计的熔断器不同，这里的模型是：连续失败达到阈值即打开，
// 冷却期结束后乐观放行下一次调用序列——放行后的首次失败会立即重新打开
// （失败计数在冷却期内不清零，只有成功或手动重置才清零）。
// 没有独立的半开状态机，"半开"只是冷却期结束后的一次乐观放行。
//
// 熔断器按 key 独立管理，不同数据源互不影响。
//
// ## 基本使用
//
//	brk, _ := breaker.New(&breaker.Config{
//		MaxConsecutiveFailures: 3,
//		ResetCooldown:          60 * time.Second,
//	}, breaker.WithLogger(logger))
//
//	if brk.ShouldBlock("sectors") {
//		return ErrCircuitOpen
//	}
//	payload, err := callRemote(ctx)
//	if err != nil {
//		brk.RecordFailure("sectors")
//		return err
//	}
//	brk.RecordSuccess("sectors")
package breaker

import (
	"time"

	"github.com/ceyewan/marketdata/clog"
)

// Breaker 熔断器核心接口，所有方法并发安全
type Breaker interface {
	// ShouldBlock 判断 key 的调用是否应被拦截。
	// 冷却期结束时有副作用：将熔断器置回闭合（open=false），
	// 放行后续调用；此时失败计数不清零，下一次失败会立即重新打开
	ShouldBlock(key string) bool

	// RecordSuccess 记录一次成功调用，清零失败计数并闭合熔断器
	RecordSuccess(key string)

	// RecordFailure 记录一次失败调用，连续失败达到阈值时打开熔断器
	RecordFailure(key string)

	// Reset 手动重置，语义等同 RecordSuccess，由用户主动刷新触发
	Reset(key string)

	// State 返回 key 的当前状态，只读，无副作用
	State(key string) State
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常放行）
	StateClosed State = iota
	// StateHalfOpen 冷却期已过但尚未放行过调用（探测窗口）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxConsecutiveFailures 打开熔断器所需的连续失败次数（默认：3）
	MaxConsecutiveFailures int `json:"max_consecutive_failures" yaml:"max_consecutive_failures" mapstructure:"max_consecutive_failures"`

	// ResetCooldown 打开后的冷却时长（默认：60s）
	// 距最后一次失败超过该时长后，下一次调用被乐观放行
	ResetCooldown time.Duration `json:"reset_cooldown" yaml:"reset_cooldown" mapstructure:"reset_cooldown"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConsecutiveFailures: 3,
		ResetCooldown:          60 * time.Second,
	}
}

func (c *Config) setDefaults() {
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 3
	}
	if c.ResetCooldown <= 0 {
		c.ResetCooldown = 60 * time.Second
	}
}

// New 创建熔断器实例
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}
	if opt.now == nil {
		opt.now = time.Now
	}

	opt.logger.Info("creating circuit breaker",
		clog.Int("max_consecutive_failures", cfg.MaxConsecutiveFailures),
		clog.Duration("reset_cooldown", cfg.ResetCooldown))

	return newBreaker(cfg, opt)
}
