// Package config 加载进程级配置：日志、编解码器与消息管线。
package config

import (
	"encoding/hex"
	"io"
	"slices"

	"github.com/lk2023060901/binser-go/pkg/binser"
	"github.com/lk2023060901/binser-go/pkg/log"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
	"github.com/lk2023060901/binser-go/pkg/util/viper"
)

// EnvPrefix 是覆盖配置项的环境变量前缀，例如 BINSER_CODEC_STRICT=true。
const EnvPrefix = "BINSER"

const DefaultMaxFrameSize uint32 = 16 * 1024 * 1024

var (
	serializerKinds  = []string{"binary", "json", "proto", "cbor"}
	compressionKinds = []string{"none", "zstd", "lz4", "snappy"}
)

// PipelineConfig 描述消息管线：序列化 → 压缩 → 加密 → 分帧。
type PipelineConfig struct {
	Serializer  string `mapstructure:"serializer" json:"serializer"`
	Compression string `mapstructure:"compression" json:"compression"`
	Encryption  bool   `mapstructure:"encryption" json:"encryption"`
	// Key 为 64 个十六进制字符（32 字节）的密钥，Encryption 为 true 时必填。
	Key          string `mapstructure:"key" json:"key"`
	MaxFrameSize uint32 `mapstructure:"maxFrameSize" json:"maxFrameSize"`
}

// KeyBytes 返回解码后的密钥。
func (p PipelineConfig) KeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(p.Key)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("pipeline key is not hex: %v", err)
	}
	if len(key) != 32 {
		return nil, merr.WrapErrParameterInvalid(32, len(key), "pipeline key length")
	}
	return key, nil
}

// Config 是配置文件的顶层结构。
type Config struct {
	Log      log.Config     `mapstructure:"log" json:"log"`
	Codec    binser.Config  `mapstructure:"codec" json:"codec"`
	Pipeline PipelineConfig `mapstructure:"pipeline" json:"pipeline"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Log: log.Config{
			Level:  "info",
			Format: "console",
			Stdout: true,
		},
		Codec: binser.DefaultConfig(),
		Pipeline: PipelineConfig{
			Serializer:   "binary",
			Compression:  "zstd",
			MaxFrameSize: DefaultMaxFrameSize,
		},
	}
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"log.level":              d.Log.Level,
		"log.format":             d.Log.Format,
		"log.stdout":             d.Log.Stdout,
		"log.disableTimestamp":   d.Log.DisableTimestamp,
		"log.file.rootPath":      d.Log.File.RootPath,
		"log.file.filename":      d.Log.File.Filename,
		"log.file.maxSize":       d.Log.File.MaxSize,
		"log.file.maxDays":       d.Log.File.MaxDays,
		"log.file.maxBackups":    d.Log.File.MaxBackups,
		"codec.maxDepth":         d.Codec.MaxDepth,
		"codec.maxCollectionLen": d.Codec.MaxCollectionLen,
		"codec.maxStringLen":     d.Codec.MaxStringLen,
		"codec.strict":           d.Codec.Strict,
		"codec.sortMapKeys":      d.Codec.SortMapKeys,
		"pipeline.serializer":    d.Pipeline.Serializer,
		"pipeline.compression":   d.Pipeline.Compression,
		"pipeline.encryption":    d.Pipeline.Encryption,
		"pipeline.key":           d.Pipeline.Key,
		"pipeline.maxFrameSize":  d.Pipeline.MaxFrameSize,
	}
}

// Load 读取 path 指向的 YAML/JSON 文件；path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New(EnvPrefix)
	v.SetDefaults(defaults())
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadReader 从 r 读取 format（yaml 或 json）格式的配置。
func LoadReader(r io.Reader, format string) (*Config, error) {
	v := viper.New(EnvPrefix)
	v.SetDefaults(defaults())
	if err := v.LoadReader(r, format); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置项的取值。
func (c *Config) Validate() error {
	if c.Codec.MaxDepth < 0 || c.Codec.MaxCollectionLen < 0 || c.Codec.MaxStringLen < 0 {
		return merr.WrapErrParameterInvalidMsg("codec limits must not be negative")
	}
	if !slices.Contains(serializerKinds, c.Pipeline.Serializer) {
		return merr.WrapErrParameterInvalidMsg("unknown serializer %q, expect one of %v", c.Pipeline.Serializer, serializerKinds)
	}
	if !slices.Contains(compressionKinds, c.Pipeline.Compression) {
		return merr.WrapErrParameterInvalidMsg("unknown compression %q, expect one of %v", c.Pipeline.Compression, compressionKinds)
	}
	if c.Pipeline.Encryption {
		if _, err := c.Pipeline.KeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// NewCodec 按 codec 配置创建 binser.Codec。
func (c *Config) NewCodec(opts ...binser.Option) *binser.Codec {
	return binser.NewCodec(append([]binser.Option{binser.WithConfig(c.Codec)}, opts...)...)
}
