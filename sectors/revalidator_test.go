package sectors

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingService 只计数 Revalidate 调用的假服务
type countingService struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingService() *countingService {
	return &countingService{calls: map[string]int{}}
}

func (s *countingService) Load(ctx context.Context, key string) (*Result, error) {
	return &Result{Snapshot: FallbackSnapshot(), Source: SourceFallback}, nil
}

func (s *countingService) Revalidate(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
}

func (s *countingService) Refresh(ctx context.Context, key string) (*Result, error) {
	return s.Load(ctx, key)
}

func (s *countingService) OnUpdate(fn UpdateListener) {}

func (s *countingService) Dispose() {}

func (s *countingService) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TestRevalidatorFiresPeriodically 测试周期触发与停止后不再触发
func TestRevalidatorFiresPeriodically(t *testing.T) {
	svc := newCountingService()
	r, err := NewRevalidator(
		&RevalidatorConfig{Interval: 10 * time.Millisecond, Keys: []string{"sectors", "brokers"}},
		svc)
	if err != nil {
		t.Fatalf("new revalidator: %v", err)
	}

	r.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for svc.count("sectors") < 2 || svc.count("brokers") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("revalidator did not fire enough: sectors=%d brokers=%d",
				svc.count("sectors"), svc.count("brokers"))
		}
		time.Sleep(5 * time.Millisecond)
	}

	r.Stop()
	after := svc.count("sectors")
	time.Sleep(50 * time.Millisecond)
	if got := svc.count("sectors"); got != after {
		t.Errorf("revalidator fired after Stop: %d -> %d", after, got)
	}
}

// TestRevalidatorStopIdempotent 测试重复 Start/Stop 的安全性
func TestRevalidatorStopIdempotent(t *testing.T) {
	svc := newCountingService()
	r, err := NewRevalidator(&RevalidatorConfig{Interval: time.Hour}, svc)
	if err != nil {
		t.Fatalf("new revalidator: %v", err)
	}

	// 未启动时 Stop 无效果
	r.Stop()

	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}

// TestRevalidatorValidation 测试工厂函数校验与默认值
func TestRevalidatorValidation(t *testing.T) {
	svc := newCountingService()

	if _, err := NewRevalidator(nil, svc); err != ErrConfigNil {
		t.Errorf("NewRevalidator(nil cfg) error = %v, want ErrConfigNil", err)
	}
	if _, err := NewRevalidator(DefaultRevalidatorConfig(), nil); err != ErrServiceRequired {
		t.Errorf("NewRevalidator(nil svc) error = %v, want ErrServiceRequired", err)
	}

	cfg := &RevalidatorConfig{}
	if _, err := NewRevalidator(cfg, svc); err != nil {
		t.Fatalf("NewRevalidator: %v", err)
	}
	if cfg.Interval != 10*time.Minute || len(cfg.Keys) != 1 {
		t.Errorf("defaults = %+v, want 10m interval and [sectors]", cfg)
	}
}
