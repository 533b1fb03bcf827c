// Package rank applies the confidence threshold and orders results for
// the response.
package rank

import (
	"sort"

	"github.com/tracefind/trace-search/internal/result"
)

// Stats describes a ranking pass.
type Stats struct {
	Input     int `json:"input"`
	Dropped   int `json:"dropped"`
	Truncated int `json:"truncated"`
	Returned  int `json:"returned"`
}

// Rank filters results below the query's confidence threshold, sorts
// the remainder by blended confidence descending, and truncates to the
// query's result cap. Sorting is stable so equally scored results keep
// their collection order; the composite sub-score breaks confidence
// ties first.
func Rank(results []*result.RawResult, q *result.Query) ([]*result.RawResult, Stats) {
	stats := Stats{Input: len(results)}

	threshold := q.ConfidenceThreshold
	kept := make([]*result.RawResult, 0, len(results))
	for _, r := range results {
		if r.Confidence < threshold {
			stats.Dropped++
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return compositeOf(kept[i]) > compositeOf(kept[j])
	})

	limit := q.MaxResults
	if limit > 0 && len(kept) > limit {
		stats.Truncated = len(kept) - limit
		kept = kept[:limit]
	}

	stats.Returned = len(kept)
	return kept, stats
}

func compositeOf(r *result.RawResult) float64 {
	if v, ok := r.Metadata[result.MetaCompositeScore]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}
