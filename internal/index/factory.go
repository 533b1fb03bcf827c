package index

import (
	"fmt"

	"github.com/tracefind/trace-search/internal/config"
)

// New builds an index gateway from configuration.
func New(cfg config.IndexConfig) (Gateway, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryIndex(), nil
	case "redis":
		return NewRedisIndex(cfg.RedisURL, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown index type: %q", cfg.Type)
	}
}
