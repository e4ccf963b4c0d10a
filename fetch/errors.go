package fetch

import "github.com/ceyewan/marketdata/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("fetch: config is nil")

	// ErrProviderRequired 未通过 WithProvider 注入远程调用实现
	ErrProviderRequired = xerrors.New("fetch: provider is required")

	// ErrBaseURLRequired HTTP Provider 未配置服务地址
	ErrBaseURLRequired = xerrors.New("fetch: base url is required")

	// ErrCircuitOpen 序列被熔断器拦截，未发起任何网络调用。
	// 不计入熔断器失败计数
	ErrCircuitOpen = xerrors.New("fetch: circuit breaker open")

	// ErrPermanentData 响应格式错误，序列内不再重试
	ErrPermanentData = xerrors.New("fetch: malformed response data")

	// ErrExhausted 序列内所有尝试均失败
	ErrExhausted = xerrors.New("fetch: all retries exhausted")
)
