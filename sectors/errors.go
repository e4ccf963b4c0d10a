package sectors

import "github.com/ceyewan/marketdata/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("sectors: config is nil")

	// ErrCacheRequired 未通过 WithCache 注入缓存层
	ErrCacheRequired = xerrors.New("sectors: cache is required")

	// ErrFetcherRequired 未通过 WithFetcher 注入抓取器
	ErrFetcherRequired = xerrors.New("sectors: fetcher is required")

	// ErrServiceRequired 未注入数据服务
	ErrServiceRequired = xerrors.New("sectors: service is required")

	// ErrDisposed 服务已销毁
	ErrDisposed = xerrors.New("sectors: service disposed")
)
