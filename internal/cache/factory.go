package cache

import (
	"fmt"

	"github.com/tracefind/trace-search/internal/config"
)

// New builds a cache gateway from configuration.
func New(cfg config.CacheConfig) (Gateway, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache type: %q", cfg.Type)
	}
}
