// Package cache 提供带新鲜度判断的持久化缓存层。
//
// 缓存条目带写入时间戳（StoredAt），新鲜度由固定 TTL 判定；
// 读取路径上的任何底层错误（缺失、损坏、I/O 失败）一律按缓存未命中处理，
// 写入失败记录日志但不向上传播为硬错误。条目的替换是原子的，
// StoredAt 按 key 单调不减。
//
// 基本使用：
//
//	c, _ := cache.New(&cache.Config{TTL: 10 * time.Minute, Serializer: "msgpack"},
//	    cache.WithStore(st), cache.WithLogger(logger))
//
//	_, _ = c.PutIfNewer(ctx, "sectors", snapshot, time.Now())
//	var cached Snapshot
//	entry := c.Get(ctx, "sectors", &cached) // nil 表示未命中
//	if entry != nil && !c.IsFresh(ctx, "sectors") {
//	    // 先用旧数据渲染，后台刷新
//	}
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/marketdata/cache/serializer"
	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/metrics"
	"github.com/ceyewan/marketdata/store"
	"github.com/ceyewan/marketdata/xerrors"
)

// Entry 缓存条目元信息
type Entry struct {
	Key      string
	StoredAt time.Time
}

// Cache 持久化缓存接口
type Cache interface {
	// Get 读取 key 的载荷到 dest，返回条目元信息；未命中（含数据损坏、
	// 底层读失败）时返回 nil，不返回错误
	Get(ctx context.Context, key string, dest any) *Entry

	// Put 序列化 payload 并以当前时间作为 StoredAt 原子写入
	Put(ctx context.Context, key string, payload any) error

	// PutIfNewer 仅当 storedAt 不早于现有条目的 StoredAt 时写入，
	// 返回是否实际写入。用于"后写者胜"的时间戳仲裁：慢速后台刷新的结果
	// 不会覆盖手动刷新刚写入的新数据
	PutIfNewer(ctx context.Context, key string, payload any, storedAt time.Time) (bool, error)

	// IsFresh 判断 key 的条目是否仍在 TTL 内，条目不存在时返回 false
	IsFresh(ctx context.Context, key string) bool

	// Clear 删除 key 的条目，用于手动刷新
	Clear(ctx context.Context, key string) error
}

// New 创建缓存实例，必须通过 WithStore 注入底层存储
func New(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.store == nil {
		return nil, ErrStoreRequired
	}
	if opt.logger == nil {
		opt.logger = clog.Discard()
	}
	if opt.now == nil {
		opt.now = time.Now
	}

	ser, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrapf(err, "cache: serializer %q", cfg.Serializer)
	}

	c := &diskCache{
		cfg:    cfg,
		store:  opt.store,
		ser:    ser,
		logger: opt.logger,
		now:    opt.now,
	}
	c.initMetrics(opt.meter)

	return c, nil
}

// envelope 落盘格式：载荷的序列化字节 + 写入时间
type envelope struct {
	Payload  []byte    `json:"payload" msgpack:"payload"`
	StoredAt time.Time `json:"stored_at" msgpack:"stored_at"`
}

type diskCache struct {
	cfg    *Config
	store  store.Store
	ser    serializer.Serializer
	logger clog.Logger
	now    func() time.Time

	keyLocks sync.Map // map[string]*sync.Mutex，串行化同一 key 的检查加写入

	hits   metrics.Counter
	misses metrics.Counter
}

func (c *diskCache) keyLock(key string) *sync.Mutex {
	if val, ok := c.keyLocks.Load(key); ok {
		return val.(*sync.Mutex)
	}
	actual, _ := c.keyLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (c *diskCache) initMetrics(meter metrics.Meter) {
	if meter == nil {
		return
	}
	c.hits, _ = meter.Counter("cache_hits_total", "缓存命中总数")
	c.misses, _ = meter.Counter("cache_misses_total", "缓存未命中总数（含损坏条目）")
}

// load 读取并解码条目，任何失败都按未命中处理
func (c *diskCache) load(ctx context.Context, key string) *envelope {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !xerrors.Is(err, store.ErrNotFound) {
			c.logger.Warn("cache read failed, treating as miss",
				clog.String("key", key), clog.Error(err))
		}
		return nil
	}

	var env envelope
	if err := c.ser.Unmarshal([]byte(raw), &env); err != nil {
		// 损坏的条目视为未命中，下次成功写入会覆盖它
		c.logger.Warn("corrupt cache entry, treating as miss",
			clog.String("key", key), clog.Error(err))
		return nil
	}
	return &env
}

func (c *diskCache) Get(ctx context.Context, key string, dest any) *Entry {
	env := c.load(ctx, key)
	if env == nil {
		if c.misses != nil {
			c.misses.Inc(ctx, metrics.L(metrics.LabelKey, key))
		}
		return nil
	}

	if err := c.ser.Unmarshal(env.Payload, dest); err != nil {
		c.logger.Warn("corrupt cache payload, treating as miss",
			clog.String("key", key), clog.Error(err))
		if c.misses != nil {
			c.misses.Inc(ctx, metrics.L(metrics.LabelKey, key))
		}
		return nil
	}

	if c.hits != nil {
		c.hits.Inc(ctx, metrics.L(metrics.LabelKey, key))
	}
	return &Entry{Key: key, StoredAt: env.StoredAt}
}

func (c *diskCache) Put(ctx context.Context, key string, payload any) error {
	_, err := c.PutIfNewer(ctx, key, payload, c.now())
	return err
}

func (c *diskCache) PutIfNewer(ctx context.Context, key string, payload any, storedAt time.Time) (bool, error) {
	// 检查与写入必须在同一把 key 锁内：否则迟到的旧结果可以在读到旧条目后、
	// 写入前被并发的新写入插队，随后覆盖掉新数据
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	// StoredAt 按 key 单调不减：更旧的时间戳直接丢弃
	if existing := c.load(ctx, key); existing != nil && existing.StoredAt.After(storedAt) {
		c.logger.Debug("discarding stale cache write",
			clog.String("key", key),
			clog.Time("stored_at", storedAt),
			clog.Time("existing", existing.StoredAt))
		return false, nil
	}

	data, err := c.ser.Marshal(payload)
	if err != nil {
		return false, xerrors.Wrapf(err, "cache: marshal payload for %s", key)
	}

	raw, err := c.ser.Marshal(&envelope{Payload: data, StoredAt: storedAt})
	if err != nil {
		return false, xerrors.Wrapf(err, "cache: marshal envelope for %s", key)
	}

	if err := c.store.Set(ctx, key, string(raw)); err != nil {
		// 持久化失败不阻断调用方：内存中的结果仍然可用
		c.logger.Error("cache write failed", clog.String("key", key), clog.Error(err))
		return false, xerrors.Wrapf(err, "cache: persist %s", key)
	}
	return true, nil
}

func (c *diskCache) IsFresh(ctx context.Context, key string) bool {
	env := c.load(ctx, key)
	if env == nil {
		return false
	}
	return c.now().Sub(env.StoredAt) < c.cfg.TTL
}

func (c *diskCache) Clear(ctx context.Context, key string) error {
	if err := c.store.Remove(ctx, key); err != nil {
		c.logger.Error("cache clear failed", clog.String("key", key), clog.Error(err))
		return xerrors.Wrapf(err, "cache: clear %s", key)
	}
	return nil
}
