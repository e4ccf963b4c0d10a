package sectors

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/marketdata/clog"
)

// Revalidator 周期性后台重校验器。
// 固定间隔对每个跟踪的 key 调用 Service.Revalidate，不管 UI 是否活跃；
// 单飞标记由 Service 保证，到点时上一轮还没结束就直接跳过。
// Stop 之后保证不再产生任何重校验调用
type Revalidator struct {
	cfg    *RevalidatorConfig
	svc    Service
	logger clog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RevalidatorConfig 周期重校验配置
type RevalidatorConfig struct {
	// Interval 重校验间隔（默认：10 分钟）
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// Keys 跟踪的缓存键（默认：["sectors"]）
	Keys []string `json:"keys" yaml:"keys" mapstructure:"keys"`
}

// DefaultRevalidatorConfig 返回默认配置
func DefaultRevalidatorConfig() *RevalidatorConfig {
	return &RevalidatorConfig{
		Interval: 10 * time.Minute,
		Keys:     []string{"sectors"},
	}
}

func (c *RevalidatorConfig) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	if len(c.Keys) == 0 {
		c.Keys = []string{"sectors"}
	}
}

// NewRevalidator 创建周期重校验器，创建后需调用 Start 启动
func NewRevalidator(cfg *RevalidatorConfig, svc Service, opts ...Option) (*Revalidator, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if svc == nil {
		return nil, ErrServiceRequired
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}

	return &Revalidator{cfg: cfg, svc: svc, logger: logger}, nil
}

// Start 启动周期循环，重复调用无效果。
// ctx 取消与 Stop 等价
func (r *Revalidator) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	r.logger.Info("periodic revalidator started",
		clog.Duration("interval", r.cfg.Interval),
		clog.Int("keys", len(r.cfg.Keys)))

	go r.run(runCtx, r.done)
}

// Stop 停止循环并等待当前轮次结束，之后不会再有重校验调用。
// 未启动或已停止时调用无效果
func (r *Revalidator) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info("periodic revalidator stopped")
}

func (r *Revalidator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, key := range r.cfg.Keys {
				// Stop 与 tick 竞争时以 Stop 为准
				select {
				case <-ctx.Done():
					return
				default:
				}
				r.svc.Revalidate(ctx, key)
			}
		}
	}
}
