// Package search provides the search service for trace-search: it runs
// the full pipeline from query normalization through provider fan-out,
// entity correlation, confidence scoring, and ranking.
package search

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tracefind/trace-search/internal/bus"
	"github.com/tracefind/trace-search/internal/cache"
	"github.com/tracefind/trace-search/internal/config"
	"github.com/tracefind/trace-search/internal/correlate"
	"github.com/tracefind/trace-search/internal/fanout"
	"github.com/tracefind/trace-search/internal/index"
	"github.com/tracefind/trace-search/internal/metrics"
	"github.com/tracefind/trace-search/internal/pkg/errors"
	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/query"
	"github.com/tracefind/trace-search/internal/rank"
	"github.com/tracefind/trace-search/internal/result"
	"github.com/tracefind/trace-search/internal/scoring"
)

// Service runs the search pipeline.
type Service struct {
	cfg        *config.Config
	log        *logger.Logger
	normalizer *query.Normalizer
	fanout     *fanout.Coordinator
	correlator *correlate.Engine
	scorer     *scoring.Engine
	cache      cache.Gateway
	index      index.Gateway
	bus        bus.Bus
	metrics    *metrics.Metrics

	// sem caps concurrently running pipelines.
	sem *semaphore.Weighted
}

// Deps bundles the service's collaborators.
type Deps struct {
	Normalizer *query.Normalizer
	Fanout     *fanout.Coordinator
	Correlator *correlate.Engine
	Scorer     *scoring.Engine
	Cache      cache.Gateway
	Index      index.Gateway
	Bus        bus.Bus
	Metrics    *metrics.Metrics
}

// NewService creates a new search service.
func NewService(cfg *config.Config, deps Deps, log *logger.Logger) *Service {
	maxConcurrent := cfg.Search.MaxConcurrentQueries
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		cfg:        cfg,
		log:        log,
		normalizer: deps.Normalizer,
		fanout:     deps.Fanout,
		correlator: deps.Correlator,
		scorer:     deps.Scorer,
		cache:      deps.Cache,
		index:      deps.Index,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Request represents a search request.
type Request struct {
	// Kind classifies the search; defaults to "person".
	Kind string `json:"kind,omitempty"`

	// Fields maps field names to search values.
	Fields map[string]any `json:"fields"`

	// Filters narrows the result set.
	Filters *result.Filters `json:"filters,omitempty"`

	// DateRange restricts results by capture timestamp.
	DateRange *result.DateRange `json:"date_range,omitempty"`

	// Geo restricts the geographic scope.
	Geo *result.GeoScope `json:"geo,omitempty"`

	// ConfidenceThreshold overrides the configured default.
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`

	// MaxResults overrides the configured default.
	MaxResults int `json:"max_results,omitempty"`

	// Owner identifies the caller.
	Owner string `json:"owner,omitempty"`
}

var validKinds = map[result.QueryKind]bool{
	result.KindPerson:   true,
	result.KindBusiness: true,
	result.KindCriminal: true,
	result.KindProperty: true,
	result.KindAdvanced: true,
}

// buildQuery converts a request to a validated query with defaults.
func (s *Service) buildQuery(req Request) (*result.Query, error) {
	kind := result.QueryKind(req.Kind)
	if kind == "" {
		kind = result.KindPerson
	}
	if !validKinds[kind] {
		return nil, errors.ValidationError("unknown query kind: " + req.Kind)
	}

	q := result.NewQuery(kind, req.Fields)
	q.Filters = req.Filters
	q.DateRange = req.DateRange
	q.Geo = req.Geo
	q.Owner = req.Owner

	q.ConfidenceThreshold = s.cfg.Search.DefaultConfidenceThreshold
	if req.ConfidenceThreshold != nil {
		q.ConfidenceThreshold = *req.ConfidenceThreshold
	}

	q.MaxResults = s.cfg.Search.DefaultMaxResults
	if req.MaxResults > 0 {
		q.MaxResults = req.MaxResults
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Search runs the full pipeline for one request.
func (s *Service) Search(ctx context.Context, req Request) (*result.RankedResponse, error) {
	start := time.Now()

	q, err := s.buildQuery(req)
	if err != nil {
		s.metrics.IncrementSearch(req.Kind, "error")
		s.publish(ctx, bus.TopicSearchFailed, "", map[string]any{
			"kind":   req.Kind,
			"reason": err.Error(),
		})
		return nil, err
	}

	log := s.log.WithQuery(q.ID)

	// Gate on the concurrency cap before doing any work.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.metrics.IncrementSearch(string(q.Kind), "error")
		s.publish(ctx, bus.TopicSearchFailed, q.ID, map[string]any{
			"kind":   q.Kind,
			"reason": "timed out waiting for search slot",
		})
		return nil, errors.TimeoutError("waiting for search slot")
	}
	defer s.sem.Release(1)

	s.publish(ctx, bus.TopicSearchRequested, q.ID, map[string]any{
		"kind": q.Kind,
	})

	// Bound total pipeline wall time. On expiry the pipeline ranks
	// whatever has arrived.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Search.QueryDeadline)
	defer cancel()

	s.normalizer.Normalize(q)

	collected, fanStats := s.fanout.Execute(ctx, q)
	log.Info("Fan-out complete",
		"providers_queried", fanStats.ProvidersQueried,
		"providers_failed", fanStats.ProvidersFailed,
		"collected", fanStats.Collected,
		"filtered_out", fanStats.FilteredOut,
	)

	// Blend provider confidences with composite scores before
	// correlation so synthetic results inherit blended values.
	s.scorer.BlendAll(collected, q)

	clusters, clusterStats := s.correlator.Cluster(ctx, collected)
	s.metrics.ObserveClusters(clusterStats.ClusterCount)

	all := collected
	for _, cluster := range clusters {
		synthetic := correlate.Synthesize(cluster, collected)
		s.scorer.AnnotateSynthetic(synthetic, q)
		all = append(all, synthetic)
	}

	ranked, rankStats := rank.Rank(all, q)

	resp := result.NewRankedResponse(q.ID, ranked, time.Since(start))
	resp.Metadata["providers_queried"] = fanStats.ProvidersQueried
	resp.Metadata["providers_failed"] = fanStats.ProvidersFailed
	resp.Metadata["entity_clusters"] = clusterStats.ClusterCount
	resp.Metadata["below_threshold"] = rankStats.Dropped

	if err := s.cache.Put(ctx, resp, s.cfg.Cache.TTL); err != nil {
		// Cache failures degrade re-fetch, not the search itself.
		log.Warn("Failed to cache response", "error", err)
	}

	// Index best-effort off the request path.
	go s.indexResults(context.WithoutCancel(ctx), resp)

	s.publish(ctx, bus.TopicSearchCompleted, q.ID, map[string]any{
		"total":          resp.Total,
		"search_time_ms": resp.SearchTimeMs,
		"clusters":       clusterStats.ClusterCount,
	})

	s.metrics.IncrementSearch(string(q.Kind), "ok")
	s.metrics.ObserveSearchLatency(time.Since(start))

	log.Info("Search complete",
		"total", resp.Total,
		"clusters", clusterStats.ClusterCount,
		"dropped", rankStats.Dropped,
		"search_time_ms", resp.SearchTimeMs,
	)
	return resp, nil
}

// Get returns a previously computed response from the cache.
func (s *Service) Get(ctx context.Context, queryID string) (*result.RankedResponse, error) {
	resp, found, err := s.cache.Get(ctx, queryID)
	if err != nil {
		s.metrics.IncrementCacheLookup("error")
		return nil, err
	}
	if !found {
		s.metrics.IncrementCacheLookup("miss")
		return nil, errors.NotFoundError("query " + queryID)
	}
	s.metrics.IncrementCacheLookup("hit")
	return resp, nil
}

// Lookup searches the full-text index for previously ranked results.
func (s *Service) Lookup(ctx context.Context, term string) ([]index.Doc, error) {
	if term == "" {
		return nil, errors.ValidationError("term is required")
	}
	return s.index.Lookup(ctx, term)
}

// indexResults feeds ranked results into the full-text index. Failures
// are logged and swallowed: the index is a secondary surface.
func (s *Service) indexResults(ctx context.Context, resp *result.RankedResponse) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for pos, r := range resp.Results {
		if err := s.index.Index(ctx, resp.QueryID, pos, r); err != nil {
			s.log.Warn("Failed to index result",
				"query_id", resp.QueryID,
				"position", pos,
				"error", err,
			)
			return
		}
	}
}

// publish emits a lifecycle event, logging on failure.
func (s *Service) publish(ctx context.Context, topic, queryID string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, bus.NewEvent(topic, queryID, payload)); err != nil {
		s.log.Warn("Failed to publish event", "topic", topic, "error", err)
	}
}
