// Package connector 提供统一的连接管理能力。
//
// 本库唯一的外部持久化依赖是 Redis（作为跨进程重启存活的键值存储），
// 因此这里只保留 Redis 连接器。设计沿用以下约定：
//   - 延迟连接：NewRedis 创建连接器但不建立连接，Connect 时才连接
//   - 幂等连接：Connect 可安全重复调用
//   - 资源所有权：谁创建谁释放；组件（如 store）仅借用连接器，不调用 Close
//
// 基本使用：
//
//	conn, _ := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"},
//	    connector.WithLogger(logger))
//	defer conn.Close()
//	if err := conn.Connect(ctx); err != nil { ... }
//	client := conn.GetClient()
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connector 定义连接器的通用行为，方法均并发安全
type Connector interface {
	// Connect 建立连接，幂等，阻塞直到成功或失败
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源，幂等
	Close() error

	// HealthCheck 发送探测请求并刷新内部健康状态
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回最近一次健康检查的缓存结果，不阻塞
	IsHealthy() bool

	// Name 返回连接器实例名称，用于日志与指标
	Name() string
}

// TypedConnector 提供类型安全的客户端访问
type TypedConnector[T any] interface {
	Connector

	// GetClient 返回底层客户端；Connect 之前或 Close 之后可能为 nil
	GetClient() T
}

// RedisConnector Redis 连接器接口
type RedisConnector interface {
	TypedConnector[*redis.Client]
}
