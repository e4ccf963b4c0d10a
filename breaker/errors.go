package breaker

import "github.com/ceyewan/marketdata/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("breaker: config is nil")

	// ErrOpenState 熔断器处于打开状态，调用被拦截
	ErrOpenState = xerrors.New("breaker: circuit is open")
)
