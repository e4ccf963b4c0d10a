// Package sectors 提供板块行情的数据访问服务。
//
// Service 实现 stale-while-revalidate 编排：有新鲜缓存直接返回；
// 缓存过期则立即返回旧数据并在后台触发重校验（同一 key 同一时刻
// 至多一个后台重校验在执行）；没有缓存时前台同步抓取，抓取失败
// 兜底到内置数据集。本层永远不向调用方抛出硬错误，最坏的结果是
// "带 fallback 标记的兜底数据"。
//
// ## 基本使用
//
//	svc, _ := sectors.New(sectors.DefaultConfig(),
//	    sectors.WithCache(c),
//	    sectors.WithFetcher(f),
//	    sectors.WithBreaker(brk),
//	    sectors.WithLogger(logger))
//	defer svc.Dispose()
//
//	result, _ := svc.Load(ctx, "sectors")
//	render(result.Snapshot, result.Source)
package sectors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ceyewan/marketdata/breaker"
	"github.com/ceyewan/marketdata/cache"
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/fetch"
	"github.com/ceyewan/marketdata/metrics"
)

// UpdateListener 后台重校验拿到更新数据时的回调。
// 在后台 goroutine 中同步调用，回调内不要做阻塞操作
type UpdateListener func(key string, snap *Snapshot)

// Service 板块行情数据服务
type Service interface {
	// Load 读取 key 的行情数据。有缓存立即返回（过期时顺带触发后台
	// 重校验）；无缓存前台抓取；抓取失败返回兜底数据集。
	// 只在服务已销毁时返回 ErrDisposed
	Load(ctx context.Context, key string) (*Result, error)

	// Revalidate 后台重校验：抓取成功则更新缓存并通知监听者，失败则
	// 保留现有缓存、不产生任何用户可见错误。同一 key 同一时刻至多一个
	// 重校验在执行，重复调用直接返回
	Revalidate(ctx context.Context, key string)

	// Refresh 用户主动刷新：清缓存、重置熔断器、无条件前台抓取。
	// 与进行中的 Revalidate 并发时 Refresh 的结果胜出
	Refresh(ctx context.Context, key string) (*Result, error)

	// OnUpdate 注册后台数据更新的监听者
	OnUpdate(fn UpdateListener)

	// Dispose 销毁服务：后续调用被拒绝，进行中的后台任务被放弃
	// （不等待，其结果由写入时间戳检查丢弃）
	Dispose()
}

// Config 服务配置
type Config struct {
	// Fallback 自定义兜底数据集，nil 时使用内置数据集
	Fallback *Snapshot `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{}
}

// New 创建数据服务，必须注入 cache 与 fetcher
func New(cfg *Config, opts ...Option) (Service, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.cache == nil {
		return nil, ErrCacheRequired
	}
	if opt.fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}
	if opt.now == nil {
		opt.now = time.Now
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = FallbackSnapshot()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &dataService{
		cache:    opt.cache,
		fetcher:  opt.fetcher,
		breaker:  opt.breaker,
		logger:   opt.logger,
		now:      opt.now,
		fallback: fallback,
		baseCtx:  baseCtx,
		cancel:   cancel,
	}
	s.initMetrics(opt.meter)

	return s, nil
}

type dataService struct {
	cache    cache.Cache
	fetcher  fetch.Fetcher
	breaker  breaker.Breaker
	logger   clog.Logger
	now      func() time.Time
	fallback *Snapshot

	// baseCtx 后台重校验的生命周期，随 Dispose 取消；
	// 调用方的 ctx 只约束前台路径
	baseCtx  context.Context
	cancel   context.CancelFunc
	disposed atomic.Bool

	guards sync.Map // map[string]*atomic.Bool，每 key 的单飞标记

	mu        sync.Mutex
	listeners []UpdateListener

	loads         metrics.Counter
	revalidations metrics.Counter
}

func (s *dataService) initMetrics(meter metrics.Meter) {
	if meter == nil {
		return
	}
	s.loads, _ = meter.Counter("sectors_loads_total", "Load 调用总数")
	s.revalidations, _ = meter.Counter("sectors_revalidations_total", "后台重校验总数")
}

func (s *dataService) Load(ctx context.Context, key string) (*Result, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}

	var snap Snapshot
	if entry := s.cache.Get(ctx, key, &snap); entry != nil && !snap.Empty() {
		if s.cache.IsFresh(ctx, key) {
			s.countLoad(ctx, SourceCache)
			return &Result{Snapshot: &snap, Source: SourceCache}, nil
		}

		// 旧数据先给 UI，更新在后台做
		s.logger.Debug("serving stale cache, scheduling revalidation", clog.String("key", key))
		go s.Revalidate(s.baseCtx, key)
		s.countLoad(ctx, SourceStale)
		return &Result{Snapshot: &snap, Source: SourceStale}, nil
	}

	fetched, _, err := s.fetchAndStore(ctx, key)
	if err != nil {
		s.logger.Warn("foreground fetch failed, serving fallback dataset",
			clog.String("key", key), clog.Error(err))
		s.countLoad(ctx, SourceFallback)
		return &Result{Snapshot: s.fallback, Source: SourceFallback}, nil
	}
	s.countLoad(ctx, SourceNetwork)
	return &Result{Snapshot: fetched, Source: SourceNetwork}, nil
}

func (s *dataService) Revalidate(ctx context.Context, key string) {
	if s.disposed.Load() {
		return
	}

	guard := s.guard(key)
	if !guard.CompareAndSwap(false, true) {
		s.logger.Debug("revalidation already in flight", clog.String("key", key))
		return
	}
	// 无论成败都要清掉单飞标记，否则该 key 的后台更新会永久卡死
	defer guard.Store(false)

	snap, written, err := s.fetchAndStore(ctx, key, fetch.WithExtendedFirstAttempt())
	if err != nil {
		// 保留现有的过期缓存，不打扰用户
		s.logger.Warn("background revalidation failed, keeping stale cache",
			clog.String("key", key), clog.Error(err))
		s.countRevalidation(ctx, metrics.OutcomeFailure)
		return
	}
	s.countRevalidation(ctx, metrics.OutcomeSuccess)

	// written == false 说明期间有更新的写入（通常是用户主动刷新），
	// 本次结果已被时间戳检查丢弃，不再通知
	if !written || s.disposed.Load() {
		return
	}
	s.notify(key, snap)
}

func (s *dataService) Refresh(ctx context.Context, key string) (*Result, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}

	s.logger.Info("manual refresh requested", clog.String("key", key))
	if err := s.cache.Clear(ctx, key); err != nil {
		// 清缓存失败不阻断刷新，新数据随后会覆盖
		s.logger.Warn("cache clear failed during refresh", clog.String("key", key), clog.Error(err))
	}
	if s.breaker != nil {
		s.breaker.Reset(key)
	}

	snap, _, err := s.fetchAndStore(ctx, key)
	if err != nil {
		s.logger.Warn("refresh fetch failed, serving fallback dataset",
			clog.String("key", key), clog.Error(err))
		s.countLoad(ctx, SourceFallback)
		return &Result{Snapshot: s.fallback, Source: SourceFallback}, nil
	}
	s.countLoad(ctx, SourceNetwork)
	return &Result{Snapshot: snap, Source: SourceNetwork}, nil
}

func (s *dataService) OnUpdate(fn UpdateListener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *dataService) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("data service disposed")
	s.cancel()
}

// fetchAndStore 执行一次抓取序列并写入缓存。
// StoredAt 取序列开始时刻：并发的抓取序列之间按发起顺序仲裁，
// 后发起的刷新即使先完成，先发起的重校验结果迟到也写不进去
func (s *dataService) fetchAndStore(ctx context.Context, key string, opts ...fetch.CallOption) (*Snapshot, bool, error) {
	startedAt := s.now()

	payload, err := s.fetcher.Fetch(ctx, key, opts...)
	if err != nil {
		return nil, false, err
	}

	snap, err := decodeSnapshot(payload)
	if err != nil {
		return nil, false, err
	}

	written, err := s.cache.PutIfNewer(ctx, key, snap, startedAt)
	if err != nil {
		// 持久化失败只记日志，内存中的结果照常交付：对调用方与监听者
		// 而言这次抓取是成功的，written=false 只保留给时间戳仲裁落败的情况
		s.logger.Warn("cache write failed after fetch", clog.String("key", key), clog.Error(err))
		return snap, true, nil
	}
	return snap, written, nil
}

func (s *dataService) guard(key string) *atomic.Bool {
	if val, ok := s.guards.Load(key); ok {
		return val.(*atomic.Bool)
	}
	actual, _ := s.guards.LoadOrStore(key, &atomic.Bool{})
	return actual.(*atomic.Bool)
}

func (s *dataService) notify(key string, snap *Snapshot) {
	s.mu.Lock()
	listeners := make([]UpdateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(key, snap)
	}
}

func (s *dataService) countLoad(ctx context.Context, source Source) {
	if s.loads != nil {
		s.loads.Inc(ctx, metrics.L(metrics.LabelSource, string(source)))
	}
}

func (s *dataService) countRevalidation(ctx context.Context, outcome string) {
	if s.revalidations != nil {
		s.revalidations.Inc(ctx, metrics.L(metrics.LabelOutcome, outcome))
	}
}
