package store

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/ceyewan/marketdata/clog"
	"github.com/ceyewan/marketdata/xerrors"
)

// fileStore 基于本地文件的存储实现，每个 key 一个文件。
//
// 写入先落临时文件再 rename，同一文件系统上 rename 是原子的，
// 读方不会看到半写状态。
type fileStore struct {
	dir    string
	logger clog.Logger
}

func newFileStore(cfg *Config, logger clog.Logger) (Store, error) {
	if cfg.Dir == "" {
		return nil, ErrDirRequired
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, xerrors.Wrapf(err, "store: create dir %s", cfg.Dir)
	}
	return &fileStore{dir: cfg.Dir, logger: logger}, nil
}

// path 将 key 编码为安全的文件名，任意 key 都不会逃出存储目录
func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".json")
}

func (s *fileStore) Get(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", xerrors.Wrapf(err, "store: file get %s", key)
	}
	return string(data), nil
}

func (s *fileStore) Set(ctx context.Context, key string, value string) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return xerrors.Wrapf(err, "store: file set %s", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return xerrors.Wrapf(err, "store: file set %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return xerrors.Wrapf(err, "store: file set %s", key)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return xerrors.Wrapf(err, "store: file set %s", key)
	}
	return nil
}

func (s *fileStore) Remove(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return xerrors.Wrapf(err, "store: file remove %s", key)
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}
