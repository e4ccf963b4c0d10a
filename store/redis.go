package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/connector"
	"github.com/ceyewan/marketdata/xerrors"
)

// redisStore 基于 go-redis 的存储实现
type redisStore struct {
	conn   connector.RedisConnector
	prefix string
	logger clog.Logger
}

func newRedisStore(cfg *Config, conn connector.RedisConnector, logger clog.Logger) (Store, error) {
	return &redisStore{
		conn:   conn,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.conn.GetClient().Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", xerrors.Wrapf(err, "store: redis get %s", key)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value string) error {
	// 0 过期时间：新鲜度由 cache 层按 StoredAt 判断，存储层不设 TTL
	if err := s.conn.GetClient().Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return xerrors.Wrapf(err, "store: redis set %s", key)
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	if err := s.conn.GetClient().Del(ctx, s.prefix+key).Err(); err != nil {
		return xerrors.Wrapf(err, "store: redis del %s", key)
	}
	return nil
}

// Close 仅借用连接器，不关闭它
func (s *redisStore) Close() error {
	return nil
}
