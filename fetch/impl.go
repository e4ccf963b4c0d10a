package fetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ceyewan/marketdata/breaker"
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
	"github.com/ceyewan/marketdata/xerrors"
)

// retryingFetcher 抓取器实现（非导出）
type retryingFetcher struct {
	cfg      *Config
	provider Provider
	breaker  breaker.Breaker
	logger   clog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	limiter  *rate.Limiter

	attempts  metrics.Counter
	sequences metrics.Counter
	duration  metrics.Histogram
}

func (f *retryingFetcher) initMetrics(meter metrics.Meter) {
	if meter == nil {
		return
	}
	f.attempts, _ = meter.Counter("fetch_attempts_total", "远程抓取尝试总数")
	f.sequences, _ = meter.Counter("fetch_sequences_total", "完整抓取序列总数")
	f.duration, _ = meter.Histogram("fetch_attempt_duration_seconds", "单次尝试耗时", metrics.WithUnit("s"))
}

// sleepCtx 可被 ctx 取消的退避等待
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *retryingFetcher) Fetch(ctx context.Context, key string, opts ...CallOption) ([]byte, error) {
	co := &callOptions{}
	for _, o := range opts {
		o(co)
	}

	// 序列级日志用同一个 request id 串起所有尝试
	logger := f.logger.With(
		clog.String("key", key),
		clog.String("request_id", uuid.NewString()))

	// 熔断器在序列开始前咨询一次，而不是每次尝试都咨询：
	// 一次用户动作内的短促重试不应被当作多次独立失败额外惩罚
	if f.breaker != nil && f.breaker.ShouldBlock(key) {
		logger.Debug("fetch blocked by circuit breaker")
		f.countSequence(ctx, key, metrics.OutcomeRejected)
		return nil, ErrCircuitOpen
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, xerrors.Wrap(err, "fetch: rate limiter wait")
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		timeout := f.cfg.ExtendedTimeout
		if attempt == 1 && !co.extendedFirstAttempt {
			timeout = f.cfg.InitialTimeout
		}

		payload, err := f.attempt(ctx, key, timeout)
		if err == nil {
			if f.breaker != nil {
				f.breaker.RecordSuccess(key)
			}
			logger.Debug("fetch succeeded", clog.Int("attempt", attempt))
			f.countAttempt(ctx, key, metrics.OutcomeSuccess)
			f.countSequence(ctx, key, metrics.OutcomeSuccess)
			return payload, nil
		}

		if f.breaker != nil {
			f.breaker.RecordFailure(key)
		}
		f.countAttempt(ctx, key, metrics.OutcomeFailure)

		if xerrors.Is(err, ErrPermanentData) {
			// 格式错误重试也不会好转，中止序列
			logger.Warn("fetch got malformed response, aborting sequence",
				clog.Int("attempt", attempt), clog.Error(err))
			f.countSequence(ctx, key, metrics.OutcomeFailure)
			return nil, err
		}

		lastErr = err
		logger.Warn("fetch attempt failed",
			clog.Int("attempt", attempt),
			clog.Duration("timeout", timeout),
			clog.Error(err))

		if attempt < f.cfg.MaxRetries {
			delay := f.cfg.BackoffBaseDelay * time.Duration(attempt)
			if err := f.sleep(ctx, delay); err != nil {
				f.countSequence(ctx, key, metrics.OutcomeFailure)
				return nil, xerrors.Wrap(err, "fetch: backoff interrupted")
			}
		}
	}

	logger.Warn("fetch exhausted all retries", clog.Int("max_retries", f.cfg.MaxRetries))
	f.countSequence(ctx, key, metrics.OutcomeFailure)
	return nil, xerrors.Wrapf(ErrExhausted, "fetch %s: last error: %v", key, lastErr)
}

// attempt 执行单次受超时约束的远程调用
func (f *retryingFetcher) attempt(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	payload, err := f.provider.Fetch(attemptCtx, key)
	if f.duration != nil {
		f.duration.Record(ctx, time.Since(start).Seconds(), metrics.L(metrics.LabelKey, key))
	}
	return payload, err
}

func (f *retryingFetcher) countAttempt(ctx context.Context, key, outcome string) {
	if f.attempts != nil {
		f.attempts.Inc(ctx, metrics.L(metrics.LabelKey, key), metrics.L(metrics.LabelOutcome, outcome))
	}
}

func (f *retryingFetcher) countSequence(ctx context.Context, key, outcome string) {
	if f.sequences != nil {
		f.sequences.Inc(ctx, metrics.L(metrics.LabelKey, key), metrics.L(metrics.LabelOutcome, outcome))
	}
}
