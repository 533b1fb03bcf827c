package search

import (
	"context"
	"time"

	"github.com/tracefind/trace-search/internal/cache"
	"github.com/tracefind/trace-search/internal/index"
	"github.com/tracefind/trace-search/internal/provider"
)

// HealthChecker provides health check capabilities.
type HealthChecker struct {
	cache    cache.Gateway
	index    index.Gateway
	registry *provider.Registry
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(c cache.Gateway, i index.Gateway, reg *provider.Registry) *HealthChecker {
	return &HealthChecker{
		cache:    c,
		index:    i,
		registry: reg,
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status     string               `json:"status"` // healthy, degraded, unhealthy
	Timestamp  time.Time            `json:"timestamp"`
	Components map[string]Component `json:"components"`
}

// Component represents a component's health.
type Component struct {
	Status  string `json:"status"` // healthy, degraded, unhealthy
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// Check performs a full health check. The cache is the only component
// that can mark the service unhealthy: without it the cached-response
// surface is broken. A degraded index or empty provider registry still
// serves searches.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Components: make(map[string]Component),
	}

	cacheHealth := h.checkGateway(ctx, h.cache.Ping)
	status.Components["cache"] = cacheHealth
	if cacheHealth.Status != "healthy" {
		status.Status = "unhealthy"
	}

	indexHealth := h.checkGateway(ctx, h.index.Ping)
	status.Components["index"] = indexHealth
	if indexHealth.Status != "healthy" && status.Status == "healthy" {
		status.Status = "degraded"
	}

	providerHealth := h.checkProviders()
	status.Components["providers"] = providerHealth
	if providerHealth.Status != "healthy" && status.Status == "healthy" {
		status.Status = "degraded"
	}

	return status
}

func (h *HealthChecker) checkGateway(ctx context.Context, ping func(context.Context) error) Component {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return Component{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: time.Since(start).Milliseconds(),
		}
	}
	return Component{
		Status:  "healthy",
		Latency: time.Since(start).Milliseconds(),
	}
}

func (h *HealthChecker) checkProviders() Component {
	if h.registry == nil || h.registry.Len() == 0 {
		return Component{
			Status:  "degraded",
			Message: "no providers registered",
		}
	}
	return Component{Status: "healthy"}
}
