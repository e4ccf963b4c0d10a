package metrics

// Config 指标系统配置
//
// 典型配置（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "marketdata"
//	  version: "v0.1.0"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter，所有操作为空操作
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// ServiceName 作为 OTel Resource 的 service.name 属性
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`

	// Version 服务版本号
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// Port Prometheus 抓取端点监听端口，0 表示不启动
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// Path 抓取端点路径，通常为 "/metrics"
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}
