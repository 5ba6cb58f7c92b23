package binser

import (
	"github.com/lk2023060901/binser-go/pkg/log"
)

// Config 控制编解码器的安全上限与行为。零值表示不设上限。
type Config struct {
	// MaxDepth 限制嵌套深度，可以把循环对象图的无限递归变成 ErrLimitExceeded。
	MaxDepth int `mapstructure:"maxDepth" json:"maxDepth"`
	// MaxCollectionLen 限制解码时序列、映射与字节缓冲的元素个数。
	MaxCollectionLen int `mapstructure:"maxCollectionLen" json:"maxCollectionLen"`
	// MaxStringLen 限制解码时字符串的字节长度。
	MaxStringLen int `mapstructure:"maxStringLen" json:"maxStringLen"`
	// Strict 为 true 时，任何被跳过的成员都会让解码失败。
	Strict bool `mapstructure:"strict" json:"strict"`
	// SortMapKeys 为 true 时按键排序写出映射，使相同的值总是得到相同的字节。
	SortMapKeys bool `mapstructure:"sortMapKeys" json:"sortMapKeys"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{SortMapKeys: true}
}

// Option 用于定制 Codec。
type Option func(*Codec)

// WithRegistry 指定类型注册表，默认使用 DefaultRegistry。
func WithRegistry(r *Registry) Option {
	return func(c *Codec) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithConfig 整体替换配置。
func WithConfig(cfg Config) Option {
	return func(c *Codec) {
		c.cfg = cfg
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Codec) {
		c.cfg.MaxDepth = depth
	}
}

func WithStrict(strict bool) Option {
	return func(c *Codec) {
		c.cfg.Strict = strict
	}
}

// WithLogger 绑定组件级 Logger，未指定时使用全局 Logger。
func WithLogger(l *log.MLogger) Option {
	return func(c *Codec) {
		c.SetLogger(l)
	}
}
