package sectors

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ceyewan/marketdata/breaker"
	"github.com/ceyewan/marketdata/cache"
	"github.com/ceyewan/marketdata/fetch"
	"github.com/ceyewan/marketdata/store"
	"github.com/ceyewan/marketdata/xerrors"
)

// fakeResp 脚本化的单次远程响应
type fakeResp struct {
	payload []byte
	err     error
	started chan struct{} // 非 nil 时在调用开始时关闭
	block   chan struct{} // 非 nil 时阻塞到被关闭
}

// fakeProvider 按脚本依次响应的 Provider
type fakeProvider struct {
	mu        sync.Mutex
	responses []*fakeResp
	calls     int
}

func (p *fakeProvider) Fetch(ctx context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	i := p.calls
	p.calls++
	var resp *fakeResp
	if i < len(p.responses) {
		resp = p.responses[i]
	}
	p.mu.Unlock()

	if resp == nil {
		return nil, xerrors.New("fake provider script exhausted")
	}
	if resp.started != nil {
		close(resp.started)
	}
	if resp.block != nil {
		select {
		case <-resp.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp.payload, resp.err
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func snapJSON(tag string) []byte {
	return []byte(fmt.Sprintf(
		`{"sectors":{"Finance":[{"code":"BBCA","name":"%s","price":9850,"change":1.2}]},"total_count":1,"sector_count":1,"status":"success"}`,
		tag))
}

var transientErr = xerrors.New("connection reset")

// testStack 一套完整的被测组件：memory store + cache + breaker + fetcher + service
type testStack struct {
	provider *fakeProvider
	cache    cache.Cache
	breaker  breaker.Breaker
	service  Service
	now      time.Time
	mu       sync.Mutex
}

func (ts *testStack) clock() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.now
}

func (ts *testStack) advance(d time.Duration) {
	ts.mu.Lock()
	ts.now = ts.now.Add(d)
	ts.mu.Unlock()
}

func newTestStack(t *testing.T, responses []*fakeResp) *testStack {
	t.Helper()

	ts := &testStack{
		provider: &fakeProvider{responses: responses},
		now:      time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}

	st, err := store.New(&store.Config{Driver: store.DriverMemory})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ts.cache, err = cache.New(&cache.Config{TTL: 10 * time.Minute},
		cache.WithStore(st), cache.WithClock(ts.clock))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	ts.breaker, err = breaker.New(
		&breaker.Config{MaxConsecutiveFailures: 3, ResetCooldown: time.Minute},
		breaker.WithClock(ts.clock))
	if err != nil {
		t.Fatalf("new breaker: %v", err)
	}

	fetcher, err := fetch.New(&fetch.Config{MaxRetries: 3},
		fetch.WithProvider(ts.provider),
		fetch.WithBreaker(ts.breaker),
		fetch.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	ts.service, err = New(DefaultConfig(),
		WithCache(ts.cache),
		WithFetcher(fetcher),
		WithBreaker(ts.breaker),
		WithClock(ts.clock))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(ts.service.Dispose)

	return ts
}

// TestLoadMissFetchesAndCaches 测试无缓存时前台抓取并落缓存
func TestLoadMissFetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{{payload: snapJSON("v1")}})

	result, err := ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Source != SourceNetwork {
		t.Errorf("source = %s, want network", result.Source)
	}
	if result.Snapshot.Sectors["Finance"][0].Name != "v1" {
		t.Errorf("payload = %+v, want v1", result.Snapshot)
	}

	// 第二次 Load 命中新鲜缓存，不再发起网络调用
	result, err = ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load(cached): %v", err)
	}
	if result.Source != SourceCache {
		t.Errorf("source = %s, want cache", result.Source)
	}
	if ts.provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", ts.provider.callCount())
	}
}

// TestLoadSucceedsOnSecondAttempt 测试首次尝试超时、第二次成功的端到端路径
func TestLoadSucceedsOnSecondAttempt(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{
		{err: transientErr},
		{payload: snapJSON("v1")},
	})

	result, err := ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Source != SourceNetwork {
		t.Errorf("source = %s, want network", result.Source)
	}
	if !ts.cache.IsFresh(ctx, "sectors") {
		t.Error("cache should hold a fresh entry after successful load")
	}
}

// TestLoadFallsBackWhenExhausted 测试重试耗尽后兜底，不向调用方抛错
func TestLoadFallsBackWhenExhausted(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{
		{err: transientErr}, {err: transientErr}, {err: transientErr},
	})

	result, err := ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load should not fail, got: %v", err)
	}
	if result.Source != SourceFallback {
		t.Errorf("source = %s, want fallback", result.Source)
	}
	if result.Snapshot.Status != "fallback" {
		t.Errorf("status = %s, want fallback", result.Snapshot.Status)
	}
	if len(result.Snapshot.Sectors) == 0 {
		t.Error("fallback snapshot should not be empty")
	}
}

// TestLoadServesStaleAndRevalidates 测试过期缓存立即返回并后台更新
func TestLoadServesStaleAndRevalidates(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{{payload: snapJSON("v2")}})

	if _, err := ts.cache.PutIfNewer(ctx, "sectors", mustDecode(t, snapJSON("v1")), ts.clock()); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	ts.advance(11 * time.Minute)

	updated := make(chan *Snapshot, 1)
	ts.service.OnUpdate(func(key string, snap *Snapshot) {
		updated <- snap
	})

	result, err := ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Source != SourceStale {
		t.Errorf("source = %s, want stale", result.Source)
	}
	if result.Snapshot.Sectors["Finance"][0].Name != "v1" {
		t.Error("stale load should return the old payload immediately")
	}

	select {
	case snap := <-updated:
		if snap.Sectors["Finance"][0].Name != "v2" {
			t.Errorf("update notification carries %+v, want v2", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background revalidation did not complete")
	}

	var cached Snapshot
	if entry := ts.cache.Get(ctx, "sectors", &cached); entry == nil || cached.Sectors["Finance"][0].Name != "v2" {
		t.Errorf("cache holds %+v, want v2", cached)
	}
}

// TestRevalidateSingleFlight 测试同一 key 的并发重校验只发起一次网络调用
func TestRevalidateSingleFlight(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	started := make(chan struct{})
	ts := newTestStack(t, []*fakeResp{
		{payload: snapJSON("v1"), started: started, block: block},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ts.service.Revalidate(ctx, "sectors")
	}()
	<-started

	// 第一个重校验还在执行，后续触发直接返回
	for i := 0; i < 3; i++ {
		ts.service.Revalidate(ctx, "sectors")
	}
	close(block)
	wg.Wait()

	if got := ts.provider.callCount(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (single-flight)", got)
	}
}

// TestRefreshWinsOverSlowRevalidate 测试刷新与慢速重校验并发时刷新胜出：
// 先发起的重校验结果迟到，被写入时间戳检查丢弃
func TestRefreshWinsOverSlowRevalidate(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	started := make(chan struct{})
	ts := newTestStack(t, []*fakeResp{
		{payload: snapJSON("reval"), started: started, block: block},
		{payload: snapJSON("refresh")},
	})

	notified := make(chan *Snapshot, 1)
	ts.service.OnUpdate(func(key string, snap *Snapshot) {
		notified <- snap
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ts.service.Revalidate(ctx, "sectors")
	}()
	<-started

	// 重校验挂起期间用户主动刷新
	ts.advance(time.Second)
	result, err := ts.service.Refresh(ctx, "sectors")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Source != SourceNetwork {
		t.Errorf("refresh source = %s, want network", result.Source)
	}

	// 放行迟到的重校验结果
	close(block)
	wg.Wait()

	var cached Snapshot
	if entry := ts.cache.Get(ctx, "sectors", &cached); entry == nil {
		t.Fatal("cache should hold an entry")
	}
	if got := cached.Sectors["Finance"][0].Name; got != "refresh" {
		t.Errorf("cache holds %q, want the refresh payload", got)
	}

	// 被丢弃的结果不应触发更新通知
	select {
	case snap := <-notified:
		t.Errorf("unexpected update notification with %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

// brokenWriteStore 写入永远失败的存储，读删正常
type brokenWriteStore struct {
	store.Store
}

func (s *brokenWriteStore) Set(ctx context.Context, key string, value string) error {
	return xerrors.New("disk full")
}

// TestRevalidateNotifiesWhenPersistFails 测试抓取成功但持久化失败时仍然通知监听者：
// 写入错误被吞掉，内存中的结果照常交付
func TestRevalidateNotifiesWhenPersistFails(t *testing.T) {
	ctx := context.Background()

	mem, err := store.New(&store.Config{Driver: store.DriverMemory})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { mem.Close() })

	c, err := cache.New(&cache.Config{TTL: 10 * time.Minute},
		cache.WithStore(&brokenWriteStore{Store: mem}))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	provider := &fakeProvider{responses: []*fakeResp{{payload: snapJSON("v1")}}}
	fetcher, err := fetch.New(&fetch.Config{MaxRetries: 1},
		fetch.WithProvider(provider),
		fetch.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	svc, err := New(DefaultConfig(), WithCache(c), WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Dispose)

	updated := make(chan *Snapshot, 1)
	svc.OnUpdate(func(key string, snap *Snapshot) {
		updated <- snap
	})

	svc.Revalidate(ctx, "sectors")

	select {
	case snap := <-updated:
		if snap.Sectors["Finance"][0].Name != "v1" {
			t.Errorf("notification carries %+v, want v1", snap)
		}
	default:
		t.Fatal("listeners were not notified after a successful fetch with failed persistence")
	}
}

// TestEmptyCachedSnapshotRefetches 测试空快照视为未命中，前台重新抓取
func TestEmptyCachedSnapshotRefetches(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{{payload: snapJSON("v1")}})

	empty := &Snapshot{Sectors: map[string][]Listing{}, Status: "success"}
	if _, err := ts.cache.PutIfNewer(ctx, "sectors", empty, ts.clock()); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	result, err := ts.service.Load(ctx, "sectors")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Source != SourceNetwork {
		t.Errorf("source = %s, want network (empty snapshot is a miss)", result.Source)
	}
	if ts.provider.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", ts.provider.callCount())
	}
}

// TestRefreshResetsBreaker 测试手动刷新绕过打开的熔断器
func TestRefreshResetsBreaker(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, []*fakeResp{
		{err: transientErr}, {err: transientErr}, {err: transientErr},
		{payload: snapJSON("v1")},
	})

	// 三连败打开熔断器，Load 兜底
	result, _ := ts.service.Load(ctx, "sectors")
	if result.Source != SourceFallback {
		t.Fatalf("source = %s, want fallback", result.Source)
	}
	if ts.breaker.State("sectors") != breaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", ts.breaker.State("sectors"))
	}

	// 刷新重置熔断器后抓取放行
	result, err := ts.service.Refresh(ctx, "sectors")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Source != SourceNetwork {
		t.Errorf("refresh source = %s, want network", result.Source)
	}
	if ts.breaker.State("sectors") != breaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", ts.breaker.State("sectors"))
	}
}

// TestDisposedService 测试销毁后的调用被拒绝
func TestDisposedService(t *testing.T) {
	ctx := context.Background()
	ts := newTestStack(t, nil)

	ts.service.Dispose()

	if _, err := ts.service.Load(ctx, "sectors"); !xerrors.Is(err, ErrDisposed) {
		t.Errorf("Load after Dispose error = %v, want ErrDisposed", err)
	}
	if _, err := ts.service.Refresh(ctx, "sectors"); !xerrors.Is(err, ErrDisposed) {
		t.Errorf("Refresh after Dispose error = %v, want ErrDisposed", err)
	}

	ts.service.Revalidate(ctx, "sectors")
	if ts.provider.callCount() != 0 {
		t.Errorf("provider calls after Dispose = %d, want 0", ts.provider.callCount())
	}
}

// TestNewValidation 测试工厂函数校验
func TestNewValidation(t *testing.T) {
	ts := newTestStack(t, nil)

	if _, err := New(nil, WithCache(ts.cache)); err != ErrConfigNil {
		t.Errorf("New(nil) error = %v, want ErrConfigNil", err)
	}
	if _, err := New(DefaultConfig()); err != ErrCacheRequired {
		t.Errorf("New without cache error = %v, want ErrCacheRequired", err)
	}
	if _, err := New(DefaultConfig(), WithCache(ts.cache)); err != ErrFetcherRequired {
		t.Errorf("New without fetcher error = %v, want ErrFetcherRequired", err)
	}
}

func mustDecode(t *testing.T, payload []byte) *Snapshot {
	t.Helper()
	snap, err := decodeSnapshot(payload)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}
