// Package fanout dispatches a normalized query to every capable data
// provider, pacing dispatches to respect downstream rate limits, and
// collects raw results while isolating per-provider failures.
package fanout

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tracefind/trace-search/internal/bus"
	"github.com/tracefind/trace-search/internal/metrics"
	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/provider"
	"github.com/tracefind/trace-search/internal/result"
)

// Coordinator fans a query out across the provider registry.
type Coordinator struct {
	registry *provider.Registry
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	bus      bus.Bus
}

// Config configures the coordinator.
type Config struct {
	// DispatchDelay is the minimum spacing between successive provider
	// dispatch starts. Calls themselves may overlap.
	DispatchDelay time.Duration

	// CallTimeout bounds a single provider call.
	CallTimeout time.Duration
}

// DefaultConfig returns sensible fan-out defaults.
func DefaultConfig() Config {
	return Config{
		DispatchDelay: 2 * time.Second,
		CallTimeout:   15 * time.Second,
	}
}

// Stats summarizes one fan-out pass.
type Stats struct {
	ProvidersQueried int
	ProvidersFailed  int
	Collected        int
	FilteredOut      int
	LatencyMs        int64
}

// NewCoordinator creates a fan-out coordinator. A nil Metrics disables
// instrumentation; a nil Bus disables provider failure events.
func NewCoordinator(registry *provider.Registry, cfg Config, log *logger.Logger, m *metrics.Metrics, eventBus bus.Bus) *Coordinator {
	if cfg.CallTimeout == 0 {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		registry: registry,
		cfg:      cfg,
		log:      log,
		metrics:  m,
		bus:      eventBus,
	}
}

type outcome struct {
	source  string
	results []*result.RawResult
	err     error
}

// Execute invokes every capable provider and returns the filtered
// aggregate. A provider failure is logged and excluded; it never aborts
// the fan-out. When ctx expires, Execute returns whatever results have
// arrived so far.
func (c *Coordinator) Execute(ctx context.Context, q *result.Query) ([]*result.RawResult, Stats) {
	start := time.Now()
	stats := Stats{}

	capable := c.registry.Capable(q.FieldNames())
	if len(capable) == 0 {
		stats.LatencyMs = time.Since(start).Milliseconds()
		return nil, stats
	}

	// Pace dispatch starts; a zero delay dispatches immediately.
	limit := rate.Inf
	if c.cfg.DispatchDelay > 0 {
		limit = rate.Every(c.cfg.DispatchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	outcomes := make(chan outcome, len(capable))
	var wg sync.WaitGroup

	dispatched := 0
	for _, p := range capable {
		if err := limiter.Wait(ctx); err != nil {
			// Deadline or cancellation while pacing: stop dispatching
			// and rank whatever has arrived.
			break
		}

		dispatched++
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
			defer cancel()

			callStart := time.Now()
			results, err := p.Search(callCtx, q)
			c.metrics.ObserveProviderLatency(p.Name(), time.Since(callStart))
			if err != nil {
				c.metrics.IncrementProviderCall(p.Name(), "error")
			} else {
				c.metrics.IncrementProviderCall(p.Name(), "ok")
			}
			outcomes <- outcome{source: p.Name(), results: results, err: err}
		}(p)
	}
	stats.ProvidersQueried = dispatched

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var collected []*result.RawResult
	received := 0
collect:
	for received < dispatched {
		select {
		case out, ok := <-outcomes:
			if !ok {
				break collect
			}
			received++
			if out.err != nil {
				stats.ProvidersFailed++
				c.log.Warn("Provider search failed",
					"query_id", q.ID,
					"source", out.source,
					"error", out.err,
				)
				c.publishFailure(ctx, q.ID, out.source, out.err)
				continue
			}
			collected = append(collected, out.results...)
		case <-ctx.Done():
			c.log.Warn("Fan-out deadline reached, proceeding with partial results",
				"query_id", q.ID,
				"received", received,
				"dispatched", dispatched,
			)
			break collect
		}
	}

	stats.Collected = len(collected)

	filtered := c.applyFilters(q, collected)
	stats.FilteredOut = len(collected) - len(filtered)
	stats.LatencyMs = time.Since(start).Milliseconds()

	return filtered, stats
}

// publishFailure emits a provider failure event, if a bus is wired.
func (c *Coordinator) publishFailure(ctx context.Context, queryID, source string, err error) {
	if c.bus == nil {
		return
	}
	event := bus.NewEvent(bus.TopicProviderFailed, queryID, map[string]any{
		"source": source,
		"error":  err.Error(),
	})
	if pubErr := c.bus.Publish(ctx, bus.TopicProviderFailed, event); pubErr != nil {
		c.log.Warn("Failed to publish provider failure", "source", source, "error", pubErr)
	}
}

// applyFilters drops results excluded by the query's date range and
// filter set.
func (c *Coordinator) applyFilters(q *result.Query, results []*result.RawResult) []*result.RawResult {
	filtered := make([]*result.RawResult, 0, len(results))

	for _, r := range results {
		if !q.DateRange.Contains(r.CapturedAt) {
			continue
		}
		if !passesFilters(q.Filters, r) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func passesFilters(f *result.Filters, r *result.RawResult) bool {
	if f == nil {
		return true
	}

	if len(f.Sources) > 0 && !containsString(f.Sources, r.Source) {
		return false
	}
	if containsString(f.ExcludeSources, r.Source) {
		return false
	}
	if len(f.DataTypes) > 0 && !containsType(f.DataTypes, r.DataType) {
		return false
	}
	if containsType(f.ExcludeDataTypes, r.DataType) {
		return false
	}
	if f.MinConfidence != nil && r.Confidence < *f.MinConfidence {
		return false
	}
	if f.MaxConfidence != nil && r.Confidence > *f.MaxConfidence {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func containsType(list []result.DataType, t result.DataType) bool {
	for _, item := range list {
		if item == t {
			return true
		}
	}
	return false
}
