package connector

import "github.com/ceyewan/marketdata/clog"

type options struct {
	logger clog.Logger
}

// Option 连接器选项函数
type Option func(*options)

// WithLogger 注入日志记录器，内部自动追加 namespace: "connector"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("connector")
		}
	}
}
