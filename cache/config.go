package cache

import "time"

// Config 缓存配置
type Config struct {
	// TTL 条目的新鲜期，超过后 IsFresh 返回 false。默认 10 分钟
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// Serializer 载荷序列化器类型，支持 "json"（默认）和 "msgpack"
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		TTL:        10 * time.Minute,
		Serializer: "json",
	}
}

func (c *Config) setDefaults() {
	if c.TTL <= 0 {
		c.TTL = 10 * time.Minute
	}
	if c.Serializer == "" {
		c.Serializer = "json"
	}
}
