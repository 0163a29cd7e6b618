package classifier

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
)

// 分类器类型
const (
	KindHTTP    = "http"
	KindLexicon = "lexicon"
)

// Config 是分类器配置。
type Config struct {
	// Kind: http（远程推理服务）/ lexicon（离线 VADER）
	Kind     string        `koanf:"kind" validate:"oneof=http lexicon"`
	Endpoint string        `koanf:"endpoint" validate:"required_if=Kind http"`
	Token    string        `koanf:"token"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
	// BreakerFailures 是触发熔断的连续失败次数
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	// RequireAll 要求分类器输出覆盖整个词表
	RequireAll bool `koanf:"require_all"`
}

// New 根据配置创建分类器（工厂方法）。
func New(cfg Config, logger zerolog.Logger) (core.MoodClassifier, error) {
	switch cfg.Kind {
	case KindHTTP:
		if cfg.Endpoint == "" {
			return nil, core.NewDomainError(core.ModuleClassifier, core.ErrorCodeInvalidInput,
				"http classifier requires an endpoint")
		}
		opts := []HTTPOption{WithLogger(logger)}
		if cfg.Token != "" {
			opts = append(opts, WithToken(cfg.Token))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.BreakerFailures > 0 {
			openTimeout := cfg.BreakerTimeout
			if openTimeout <= 0 {
				openTimeout = 30 * time.Second
			}
			opts = append(opts, WithBreaker(cfg.BreakerFailures, openTimeout))
		}
		return NewHTTPClassifier(cfg.Endpoint, opts...), nil

	case "", KindLexicon:
		return NewLexiconClassifier(), nil

	default:
		return nil, core.NewDomainError(core.ModuleClassifier, core.ErrorCodeNotSupported,
			fmt.Sprintf("unsupported classifier kind %q", cfg.Kind))
	}
}
