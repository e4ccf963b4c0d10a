package cache

import "github.com/ceyewan/marketdata/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("cache: config is nil")

	// ErrStoreRequired 未通过 WithStore 注入底层存储
	ErrStoreRequired = xerrors.New("cache: store is required")
)
