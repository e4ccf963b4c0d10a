package store

import (
	"context"

	"github.com/maypok86/otter/v2"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/xerrors"
)

// memoryStore 基于 otter 的进程内存储实现，不跨进程重启存活
type memoryStore struct {
	cache  *otter.Cache[string, string]
	logger clog.Logger
}

func newMemoryStore(cfg *Config, logger clog.Logger) (Store, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1024
	}

	cache, err := otter.New(&otter.Options[string, string]{
		MaximumSize: capacity,
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "store: build otter cache")
	}

	return &memoryStore{cache: cache, logger: logger}, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, error) {
	val, ok := s.cache.GetIfPresent(key)
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value string) error {
	s.cache.Set(key, value)
	return nil
}

func (s *memoryStore) Remove(ctx context.Context, key string) error {
	s.cache.Invalidate(key)
	return nil
}

func (s *memoryStore) Close() error {
	s.cache.StopAllGoroutines()
	return nil
}
