package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
)

// circuitBreaker 熔断器实现（非导出），按 key 管理独立的熔断状态
type circuitBreaker struct {
	cfg    *Config
	logger clog.Logger
	now    func() time.Time

	states sync.Map // map[string]*keyState

	transitions metrics.Counter
	rejections  metrics.Counter
}

// keyState 单个 key 的熔断状态。
// open == true 仅在 failureCount ≥ 阈值且距最后一次失败未超过冷却期时成立；
// 冷却期结束后由 ShouldBlock 置回 false，failureCount 保留
type keyState struct {
	mu            sync.Mutex
	failureCount  int
	lastFailureAt time.Time
	open          bool
}

func newBreaker(cfg *Config, opt *options) (Breaker, error) {
	cb := &circuitBreaker{
		cfg:    cfg,
		logger: opt.logger,
		now:    opt.now,
	}
	if opt.meter != nil {
		cb.transitions, _ = opt.meter.Counter("breaker_transitions_total", "熔断器状态迁移总数")
		cb.rejections, _ = opt.meter.Counter("breaker_rejections_total", "被熔断器拦截的调用总数")
	}
	return cb, nil
}

func (cb *circuitBreaker) state(key string) *keyState {
	if val, ok := cb.states.Load(key); ok {
		return val.(*keyState)
	}
	actual, _ := cb.states.LoadOrStore(key, &keyState{})
	return actual.(*keyState)
}

func (cb *circuitBreaker) ShouldBlock(key string) bool {
	st := cb.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.open {
		return false
	}

	if cb.now().Sub(st.lastFailureAt) >= cb.cfg.ResetCooldown {
		// 冷却期结束，乐观放行；失败计数保留，下一次失败立即重新打开
		st.open = false
		cb.logger.Info("circuit breaker cooldown elapsed, allowing retry",
			clog.String("key", key),
			clog.Int("failure_count", st.failureCount))
		cb.countTransition(key, StateClosed)
		return false
	}

	cb.logger.Debug("circuit breaker open, blocking call", clog.String("key", key))
	if cb.rejections != nil {
		cb.rejections.Inc(context.Background(), metrics.L(metrics.LabelKey, key))
	}
	return true
}

func (cb *circuitBreaker) RecordSuccess(key string) {
	st := cb.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	wasOpen := st.open
	st.failureCount = 0
	st.lastFailureAt = time.Time{}
	st.open = false

	if wasOpen {
		cb.logger.Info("circuit breaker closed after success", clog.String("key", key))
		cb.countTransition(key, StateClosed)
	}
}

func (cb *circuitBreaker) RecordFailure(key string) {
	st := cb.state(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.failureCount++
	st.lastFailureAt = cb.now()

	if st.failureCount >= cb.cfg.MaxConsecutiveFailures && !st.open {
		st.open = true
		cb.logger.Warn("circuit breaker opened",
			clog.String("key", key),
			clog.Int("failure_count", st.failureCount))
		cb.countTransition(key, StateOpen)
	}
}

func (cb *circuitBreaker) Reset(key string) {
	cb.logger.Info("circuit breaker reset", clog.String("key", key))
	cb.RecordSuccess(key)
}

// State 只读观测，不触发冷却期的状态迁移
func (cb *circuitBreaker) State(key string) State {
	val, ok := cb.states.Load(key)
	if !ok {
		return StateClosed
	}
	st := val.(*keyState)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.open {
		return StateClosed
	}
	if cb.now().Sub(st.lastFailureAt) >= cb.cfg.ResetCooldown {
		return StateHalfOpen
	}
	return StateOpen
}

func (cb *circuitBreaker) countTransition(key string, to State) {
	if cb.transitions != nil {
		cb.transitions.Inc(context.Background(),
			metrics.L(metrics.LabelKey, key),
			metrics.L(metrics.LabelState, to.String()))
	}
}
