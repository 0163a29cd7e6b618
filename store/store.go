// Package store 提供 core.Store 的实现：内存、Redis、Badger。
// 接口定义在 core 包，这里只包含实现。
//
//	var cache core.Store = store.NewMemoryStore()
package store

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
)

// Config 选择并配置存储后端。
type Config struct {
	// Backend: memory / redis / badger
	Backend  string `koanf:"backend" validate:"omitempty,oneof=memory redis badger"`
	Addr     string `koanf:"addr" validate:"required_if=Backend redis"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	// Dir 为空且 Backend=badger 时使用纯内存模式
	Dir string `koanf:"dir"`
}

// New 按配置创建存储后端，Backend 为空时使用内存。
func New(cfg Config, logger zerolog.Logger) (core.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		s, err := NewRedisStore(RedisOptions{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "badger":
		s, err := NewBadgerStore(BadgerOptions{Dir: cfg.Dir, InMemory: cfg.Dir == "", Logger: logger})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown store backend %q", cfg.Backend))
	}
}
