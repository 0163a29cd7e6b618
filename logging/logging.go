// Package logging 提供基于 zerolog 的结构化日志。
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	log := logging.Component("engine")
//	log.Info().Str("request_id", id).Msg("recommend")
//
// 组件以值的方式持有 zerolog.Logger，通过构造参数注入；
// 全局 Logger() 仅用于 main 与启动阶段。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 是日志配置。
type Config struct {
	// Level: trace, debug, info, warn, error（默认 info）
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	// Format: json 或 console（默认 json）
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	// Caller 输出调用位置
	Caller bool `koanf:"caller"`
	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var (
	mu     sync.RWMutex
	global = New(DefaultConfig())
)

// Init 重新配置全局 Logger，可重复调用。
func Init(cfg Config) {
	l := New(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
}

// Logger 返回全局 Logger。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Component 返回带 component 字段的子 Logger。
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Nop 返回丢弃所有输出的 Logger。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// New 按配置构建独立的 Logger，不修改全局状态。
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel 解析日志级别，无法识别时返回 info。
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
