// Package clog 提供基于 slog 的结构化日志组件。
//
// 设计要点：
//   - 抽象接口，不向调用方暴露底层实现（slog）
//   - 支持层级命名空间，各组件通过 WithNamespace 派生子 Logger
//   - 函数式选项模式，与本库其他组件保持一致
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("sector data loaded", clog.String("key", "sectors"))
//
// 组件注入：
//
//	svc, _ := sectors.New(cfg, sectors.WithLogger(logger))
//	// 组件内部自动追加 namespace
package clog

// Logger 日志接口，提供结构化日志记录能力。
//
// 四个级别：Debug、Info、Warn、Error。
// 通过 With 派生带预设字段的子 Logger，通过 WithNamespace 派生带命名空间的子 Logger。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger，预设字段出现在其所有日志中
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	// 命名空间以 "." 连接并追加到现有命名空间之后：
	//
	//	logger.WithNamespace("sectors").WithNamespace("revalidator")
	//	// namespace = "sectors.revalidator"
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整日志级别
	SetLevel(level Level) error
}

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置（info 级别，console 格式，stdout 输出）。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return newLogger(config, o)
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 用于测试，或调用方显式不需要日志输出的场景。
func Discard() Logger {
	return &noopLogger{}
}

type noopLogger struct{}

func (l *noopLogger) Debug(msg string, fields ...Field)    {}
func (l *noopLogger) Info(msg string, fields ...Field)     {}
func (l *noopLogger) Warn(msg string, fields ...Field)     {}
func (l *noopLogger) Error(msg string, fields ...Field)    {}
func (l *noopLogger) With(fields ...Field) Logger          { return l }
func (l *noopLogger) WithNamespace(parts ...string) Logger { return l }
func (l *noopLogger) SetLevel(level Level) error           { return nil }
