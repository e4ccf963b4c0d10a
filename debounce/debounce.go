// Package debounce 提供输入防抖组件。
//
// 把一连串密集输入合并成一次下游求值：每次输入都会取消尚未触发的
// 计划任务并重新计时，静默期满后只用最后一次输入的值执行回调。
//
// ## 基本使用
//
//	d, _ := debounce.New(&debounce.Config{Delay: 500 * time.Millisecond},
//	    func(query string) { runFilter(query) })
//	defer d.Stop()
//
//	d.OnInput("b")
//	d.OnInput("bb")
//	d.OnInput("bbca") // 500ms 后只用 "bbca" 求值一次
package debounce

import (
	"sync"
	"time"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/xerrors"
)

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("debounce: config is nil")

	// ErrCallbackNil 回调为空
	ErrCallbackNil = xerrors.New("debounce: callback is nil")
)

// Config 防抖配置
type Config struct {
	// Delay 静默期时长，最后一次输入后经过该时长才执行回调（默认：500ms）
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{Delay: 500 * time.Millisecond}
}

func (c *Config) setDefaults() {
	if c.Delay <= 0 {
		c.Delay = 500 * time.Millisecond
	}
}

// Debouncer 输入防抖器，所有方法并发安全。
// 回调在计时器 goroutine 中执行，不要在回调里做长时间阻塞
type Debouncer[T any] struct {
	delay  time.Duration
	fn     func(T)
	logger clog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	stopped  bool
	inFlight sync.WaitGroup
}

// Option 防抖器可选配置
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 注入日志实例，自动追加 debounce 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("debounce")
		}
	}
}

// New 创建防抖器，fn 是静默期满后对最后一次输入值执行的回调
func New[T any](cfg *Config, fn func(T), opts ...Option) (*Debouncer[T], error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if fn == nil {
		return nil, ErrCallbackNil
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}

	return &Debouncer[T]{
		delay:  cfg.Delay,
		fn:     fn,
		logger: opt.logger,
	}, nil
}

// OnInput 提交一次输入：取消未触发的计划任务，静默期重新开始计时。
// 一轮连续输入中只有最后一个值会被求值
func (d *Debouncer[T]) OnInput(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	// 代数标记解决 Stop 与触发的竞争：迟到的旧计时器发现代数不符直接放弃
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen, value)
	})
}

// Stop 取消未触发的计划任务并拒绝后续输入，可重复调用。
// 正在执行的回调会被等待到返回，Stop 返回后不会再有任何求值在运行；
// 因此不要在回调内部调用 Stop
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.inFlight.Wait()
}

func (d *Debouncer[T]) fire(gen uint64, value T) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	// 在锁内登记执行中标记，Stop 据此等待回调结束
	d.inFlight.Add(1)
	d.mu.Unlock()
	defer d.inFlight.Done()

	d.logger.Debug("debounce quiet period elapsed, evaluating")
	d.fn(value)
}
