package connector

import "github.com/ceyewan/marketdata/xerrors"

// 连接器哨兵错误
var (
	ErrConfig      = xerrors.New("connector: invalid config")
	ErrConnection  = xerrors.New("connector: connection failed")
	ErrHealthCheck = xerrors.New("connector: health check failed")
)
