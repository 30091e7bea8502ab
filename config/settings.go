// Package config 加载服务配置，并维护相似推荐 Pipeline 的 Node 注册表。
//
// 配置分三层，后者覆盖前者：
//  1. 结构体默认值
//  2. 可选的 YAML 文件（参数指定，或 MELORANK_CONFIG）
//  3. MELORANK_ 前缀的环境变量，例如 MELORANK_REDIS_ADDR -> redis.addr
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/melorank/lock"
	"github.com/rushteam/melorank/logging"
	"github.com/rushteam/melorank/service"
	"github.com/rushteam/melorank/store"
)

const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "MELORANK_"

	// ConfigPathEnvVar 指定配置文件路径的环境变量
	ConfigPathEnvVar = "MELORANK_CONFIG"
)

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// RedisConfig 为空 Addr 时使用内存存储
type RedisConfig struct {
	Addr string `koanf:"addr"`
	DB   int    `koanf:"db" validate:"min=0"`
}

// RankingConfig 排行榜配置
type RankingConfig struct {
	Key        string  `koanf:"key" validate:"required"`
	PlayWeight float64 `koanf:"play_weight" validate:"gt=0"`
	LikeWeight float64 `koanf:"like_weight" validate:"gt=0"`
}

// Weights 转换为 service.Weights
func (c RankingConfig) Weights() service.Weights {
	return service.Weights{Play: c.PlayWeight, Like: c.LikeWeight}
}

// SimilarConfig 相似推荐配置
type SimilarConfig struct {
	Delimiter    string `koanf:"delimiter" validate:"required"`
	DefaultLimit int    `koanf:"default_limit" validate:"min=1,max=100"`

	// PipelineFile 为空时使用内置 Pipeline
	PipelineFile string `koanf:"pipeline_file"`
}

// CatalogConfig 目录配置
type CatalogConfig struct {
	SeedFile string `koanf:"seed_file"`
}

// Settings 是服务的完整配置
type Settings struct {
	HTTP    HTTPConfig          `koanf:"http"`
	Log     logging.Config      `koanf:"log"`
	Redis   RedisConfig         `koanf:"redis"`
	Ranking RankingConfig       `koanf:"ranking"`
	Lock    service.LikeConfig  `koanf:"lock"`
	Retry   lock.RetryConfig    `koanf:"retry"`
	Breaker store.BreakerConfig `koanf:"breaker"`
	Similar SimilarConfig       `koanf:"similar"`
	Catalog CatalogConfig       `koanf:"catalog"`
}

// Defaults 返回默认配置
func Defaults() Settings {
	w := service.DefaultWeights()
	return Settings{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: logging.Config{Level: "info", Format: "json"},
		Ranking: RankingConfig{
			Key:        store.DefaultRankingKey,
			PlayWeight: w.Play,
			LikeWeight: w.Like,
		},
		Lock:    service.DefaultLikeConfig(),
		Retry:   lock.DefaultRetryConfig(),
		Breaker: store.DefaultBreakerConfig(),
		Similar: SimilarConfig{Delimiter: ",", DefaultLimit: service.DefaultSimilarLimit},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时尝试 MELORANK_CONFIG；都为空则跳过文件层。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envTransformFunc 把 MELORANK_SECTION_FIELD_NAME 映射为 section.field_name；
// MELORANK_CONFIG 本身不是配置项，返回空串丢弃。
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

var validate = validator.New()

// Validate 按 struct tag 校验配置
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
