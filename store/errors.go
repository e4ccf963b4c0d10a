package store

import "github.com/ceyewan/marketdata/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("store: config is nil")

	// ErrNotFound key 不存在
	ErrNotFound = xerrors.New("store: key not found")

	// ErrUnknownDriver 不支持的驱动
	ErrUnknownDriver = xerrors.New("store: unknown driver")

	// ErrRedisConnRequired redis 驱动缺少连接器
	ErrRedisConnRequired = xerrors.New("store: redis connector is required, use WithRedisConnector")

	// ErrDirRequired file 驱动缺少目录
	ErrDirRequired = xerrors.New("store: dir is required for file driver")
)
