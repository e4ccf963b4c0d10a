package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// collector 收集回调求值的线程安全记录器
type collector struct {
	mu     sync.Mutex
	values []string
	times  []time.Time
}

func (c *collector) add(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
	c.times = append(c.times, time.Now())
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}

// TestBurstYieldsSingleEvaluation 测试一轮连续输入只求值一次，用最后的值
func TestBurstYieldsSingleEvaluation(t *testing.T) {
	c := &collector{}
	d, err := New(&Config{Delay: 300 * time.Millisecond}, c.add)
	if err != nil {
		t.Fatalf("new debouncer: %v", err)
	}
	defer d.Stop()

	start := time.Now()
	d.OnInput("b")
	time.Sleep(60 * time.Millisecond)
	d.OnInput("bb")
	time.Sleep(60 * time.Millisecond)
	d.OnInput("bbca")

	// 静默期从最后一次输入起算
	time.Sleep(500 * time.Millisecond)

	got := c.snapshot()
	if len(got) != 1 {
		t.Fatalf("evaluations = %v, want exactly one", got)
	}
	if got[0] != "bbca" {
		t.Errorf("evaluated %q, want the last input bbca", got[0])
	}

	c.mu.Lock()
	elapsed := c.times[0].Sub(start)
	c.mu.Unlock()
	// 0ms、60ms、120ms 三次输入，期望在约 120+300=420ms 处触发
	if elapsed < 400*time.Millisecond {
		t.Errorf("fired at %v, want after the quiet period from the last input", elapsed)
	}
}

// TestSeparateBurstsEvaluateSeparately 测试间隔超过静默期的输入各自求值
func TestSeparateBurstsEvaluateSeparately(t *testing.T) {
	c := &collector{}
	d, err := New(&Config{Delay: 50 * time.Millisecond}, c.add)
	if err != nil {
		t.Fatalf("new debouncer: %v", err)
	}
	defer d.Stop()

	d.OnInput("first")
	time.Sleep(150 * time.Millisecond)
	d.OnInput("second")
	time.Sleep(150 * time.Millisecond)

	got := c.snapshot()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("evaluations = %v, want [first second]", got)
	}
}

// TestStopCancelsPending 测试 Stop 取消未触发的求值并拒绝后续输入
func TestStopCancelsPending(t *testing.T) {
	c := &collector{}
	d, err := New(&Config{Delay: 50 * time.Millisecond}, c.add)
	if err != nil {
		t.Fatalf("new debouncer: %v", err)
	}

	d.OnInput("pending")
	d.Stop()
	d.OnInput("after-stop")
	d.Stop()

	time.Sleep(150 * time.Millisecond)
	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("evaluations after Stop = %v, want none", got)
	}
}

// TestStopWaitsForInFlightCallback 测试 Stop 返回后不再有回调在执行：
// 回调执行中调用 Stop，Stop 必须等回调返回才能返回
func TestStopWaitsForInFlightCallback(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	d, err := New(&Config{Delay: 20 * time.Millisecond}, func(string) {
		close(started)
		<-release
		finished.Store(true)
	})
	if err != nil {
		t.Fatalf("new debouncer: %v", err)
	}

	d.OnInput("query")
	<-started

	stopReturned := make(chan struct{})
	go func() {
		d.Stop()
		close(stopReturned)
	}()

	// 回调还挂着，Stop 不能先返回
	select {
	case <-stopReturned:
		t.Fatal("Stop returned while the callback was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopReturned:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the callback finished")
	}
	if !finished.Load() {
		t.Error("Stop returned before the callback completed")
	}
}

// TestNewValidation 测试工厂函数校验与默认值
func TestNewValidation(t *testing.T) {
	if _, err := New[string](nil, func(string) {}); err != ErrConfigNil {
		t.Errorf("New(nil cfg) error = %v, want ErrConfigNil", err)
	}
	if _, err := New[string](DefaultConfig(), nil); err != ErrCallbackNil {
		t.Errorf("New(nil fn) error = %v, want ErrCallbackNil", err)
	}

	cfg := &Config{}
	if _, err := New(cfg, func(string) {}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Delay != 500*time.Millisecond {
		t.Errorf("default delay = %v, want 500ms", cfg.Delay)
	}
}
