package store

// Config 存储组件配置
type Config struct {
	// Driver 存储驱动: "redis" | "file" | "memory"（默认 "memory"）
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Prefix 全局 key 前缀，如 "marketdata:"，仅 redis 驱动使用
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Dir 存储目录，仅 file 驱动使用
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Capacity 最大条目数，仅 memory 驱动使用（默认 1024）
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}
