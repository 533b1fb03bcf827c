// Package correlate groups raw results into entity clusters via
// pairwise field similarity, and synthesizes a merged view per cluster.
package correlate

import (
	"context"
	"fmt"
	"time"

	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/result"
)

// Engine performs greedy single-pass entity clustering.
type Engine struct {
	threshold float64
	log       *logger.Logger
}

// NewEngine creates a clustering engine. A similarity strictly above
// threshold is required for a result to join an existing cluster.
func NewEngine(threshold float64, log *logger.Logger) *Engine {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.8
	}
	return &Engine{
		threshold: threshold,
		log:       log,
	}
}

// Cluster is a transient grouping of results believed to describe one
// real-world subject. Members are indices into the input slice; the
// first member is the cluster's representative.
type Cluster struct {
	ID      string
	Members []int
}

// Stats summarizes one clustering pass.
type Stats struct {
	InputCount   int
	ClusterCount int
	LatencyMs    int64
}

// Cluster assigns each result to the existing cluster whose
// representative it most resembles, provided the similarity strictly
// exceeds the match threshold; ties favor the earliest-created cluster.
// Otherwise the result starts a new singleton cluster. O(n·k) over n
// results and k clusters; fine at tens to low hundreds of results.
func (e *Engine) Cluster(ctx context.Context, results []*result.RawResult) ([]Cluster, Stats) {
	start := time.Now()

	clusters := make([]Cluster, 0, len(results))

	for i, r := range results {
		// Check context cancellation periodically
		if i%100 == 0 {
			select {
			case <-ctx.Done():
				return clusters, Stats{
					InputCount:   len(results),
					ClusterCount: len(clusters),
					LatencyMs:    time.Since(start).Milliseconds(),
				}
			default:
			}
		}

		best := -1
		bestSim := 0.0
		for c := range clusters {
			rep := results[clusters[c].Members[0]]
			sim := ResultSimilarity(r, rep)
			// Strict inequality twice over: the threshold must be
			// exceeded, and an equal later score never displaces an
			// earlier cluster.
			if sim > e.threshold && sim > bestSim {
				bestSim = sim
				best = c
			}
		}

		if best >= 0 {
			clusters[best].Members = append(clusters[best].Members, i)
			e.log.Debug("Result joined cluster",
				"cluster", clusters[best].ID,
				"result", i,
				"similarity", bestSim,
			)
		} else {
			clusters = append(clusters, Cluster{
				ID:      fmt.Sprintf("entity_%d", len(clusters)),
				Members: []int{i},
			})
		}
	}

	return clusters, Stats{
		InputCount:   len(results),
		ClusterCount: len(clusters),
		LatencyMs:    time.Since(start).Milliseconds(),
	}
}
