package clog

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Option 函数式选项
type Option func(*options)

type options struct {
	namespaceParts []string
}

// WithNamespace 设置初始命名空间
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}

// loggerImpl 是 Logger 接口的实现
type loggerImpl struct {
	handler   slog.Handler
	level     *atomic.Int64 // 派生 Logger 共享同一级别变量
	namespace []string
	baseAttrs []slog.Attr
}

func newLogger(config *Config, o *options) (Logger, error) {
	lvl, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	level := &atomic.Int64{}
	level.Store(int64(lvl))

	var out *os.File
	switch config.Output {
	case "stdout", "":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	hopts := &slog.HandlerOptions{
		AddSource: config.AddSource,
		Level:     levelVar{level},
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(out, hopts)
	} else {
		handler = slog.NewTextHandler(out, hopts)
	}

	return &loggerImpl{
		handler:   handler,
		level:     level,
		namespace: o.namespaceParts,
	}, nil
}

// levelVar 将共享的 atomic 级别适配为 slog.Leveler
type levelVar struct {
	v *atomic.Int64
}

func (l levelVar) Level() slog.Level {
	return slog.Level(l.v.Load())
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *loggerImpl) With(fields ...Field) Logger {
	child := *l
	child.baseAttrs = append(append([]slog.Attr{}, l.baseAttrs...), fields...)
	return &child
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	child := *l
	child.namespace = append(append([]string{}, l.namespace...), parts...)
	return &child
}

func (l *loggerImpl) SetLevel(level Level) error {
	l.level.Store(int64(level))
	return nil
}

func (l *loggerImpl) log(level Level, msg string, fields []Field) {
	slogLevel := slog.Level(level)

	if !l.handler.Enabled(context.Background(), slogLevel) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.baseAttrs)+len(fields)+1)
	attrs = append(attrs, l.baseAttrs...)
	attrs = append(attrs, fields...)
	if len(l.namespace) > 0 {
		attrs = append(attrs, slog.String("namespace", strings.Join(l.namespace, ".")))
	}

	// 跳过 runtime.Callers、log、Debug/Info/... 三层，定位真实调用点
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), slogLevel, msg, pcs[0])
	record.AddAttrs(attrs...)
	_ = l.handler.Handle(context.Background(), record)
}
