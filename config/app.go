// Package config 包含两部分：
//   - Node 注册表：配置驱动的 Pipeline（Register / DefaultFactory / LoadPipeline）
//   - 应用配置：默认值 -> YAML 文件 -> MOODREC_ 环境变量，加载后做结构校验
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

	"github.com/rushteam/moodrec/classifier"
	"github.com/rushteam/moodrec/logging"
	"github.com/rushteam/moodrec/store"
)

const (
	// EnvPrefix 是环境变量前缀：MOODREC_ENGINE_DEFAULT_MAX_BOOKS -> engine.default_max_books
	EnvPrefix = "MOODREC_"
	// ConfigPathEnvVar 指定配置文件路径。
	ConfigPathEnvVar = "MOODREC_CONFIG"
)

// AppConfig 是应用配置。
type AppConfig struct {
	Corpus     CorpusConfig     `koanf:"corpus"`
	Taxonomy   TaxonomyConfig   `koanf:"taxonomy"`
	Classifier classifier.Config `koanf:"classifier"`
	Cache      CacheConfig      `koanf:"cache"`
	Engine     EngineConfig     `koanf:"engine"`
	Server     ServerConfig     `koanf:"server"`
	Log        logging.Config   `koanf:"log"`
}

type CorpusConfig struct {
	Path           string   `koanf:"path" validate:"required"`
	Format         string   `koanf:"format" validate:"omitempty,oneof=csv tsv parquet"`
	TitleColumn    string   `koanf:"title_column"`
	FeatureColumns []string `koanf:"feature_columns"`
}

// TaxonomyConfig 中 Path 为空时使用内置类别体系。
type TaxonomyConfig struct {
	Path string `koanf:"path"`
}

type CacheConfig struct {
	Enabled bool `koanf:"enabled"`
	// TTL 单位为秒，<=0 表示不过期
	TTL   int          `koanf:"ttl"`
	Store store.Config `koanf:"store"`
}

type EngineConfig struct {
	DefaultMaxBooks     int     `koanf:"default_max_books" validate:"gte=1,lte=20"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	// Pipeline 为空时使用默认链路
	Pipeline string `koanf:"pipeline"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// DefaultAppConfig 返回默认配置。
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Classifier: classifier.Config{
			Kind:            classifier.KindLexicon,
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:   24 * 3600,
			Store: store.Config{Backend: "memory"},
		},
		Engine: EngineConfig{
			DefaultMaxBooks:     8,
			ConfidenceThreshold: 0.5,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: logging.Config{Level: "info", Format: "json"},
	}
}

// sliceConfigPaths 中的 key 在环境变量里按逗号分隔。
var sliceConfigPaths = []string{"corpus.feature_columns"}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置并校验。
// path 为空时读取 MOODREC_CONFIG，仍为空则不加载文件。
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
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

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyResolver(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for _, key := range sliceConfigPaths {
		if s, ok := k.Get(key).(string); ok {
			if err := k.Set(key, splitList(s)); err != nil {
				return nil, fmt.Errorf("set %s: %w", key, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyResolver 把环境变量名映射到已知的配置路径：
//
//	MOODREC_CLASSIFIER_BREAKER_FAILURES -> classifier.breaker_failures
//	MOODREC_CACHE_STORE_BACKEND         -> cache.store.backend
//
// 不在 known 中的变量按第一个 "_" 拆出 section。
func envKeyResolver(known []string) func(string) string {
	byEnv := make(map[string]string, len(known))
	for _, key := range known {
		byEnv[strings.ReplaceAll(key, ".", "_")] = key
	}
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if key, ok := byEnv[s]; ok {
			return key
		}
		return strings.Replace(s, "_", ".", 1)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 做结构校验。
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
