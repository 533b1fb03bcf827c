// Package cache stores completed ranked responses keyed by query ID so
// clients can re-fetch a result set without re-running the pipeline.
package cache

import (
	"context"
	"time"

	"github.com/tracefind/trace-search/internal/result"
)

// Gateway is the response cache abstraction.
type Gateway interface {
	// Put stores a ranked response under its query ID with a TTL.
	Put(ctx context.Context, resp *result.RankedResponse, ttl time.Duration) error
	// Get returns the cached response for a query ID, or found=false.
	Get(ctx context.Context, queryID string) (*result.RankedResponse, bool, error)
	// Ping reports backend health.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
