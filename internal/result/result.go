package result

import (
	"fmt"
	"strings"
	"time"
)

// RawResult is a single record returned by a provider. Results are
// mutated in place during correlation and scoring to attach metadata,
// and discarded once the response is cached.
type RawResult struct {
	// Source is the provider that produced this record.
	Source string `json:"source"`

	// DataType tags the record kind.
	DataType DataType `json:"data_type"`

	// Confidence starts as the provider's self-reported confidence and
	// becomes the blended confidence after scoring. Range [0,1].
	Confidence float64 `json:"confidence"`

	// Fields holds whatever the provider could extract. Values are
	// untyped; the key set varies per provider.
	Fields map[string]any `json:"fields"`

	// CapturedAt is when the record was captured.
	CapturedAt time.Time `json:"captured_at"`

	// Metadata records correlation and scoring annotations.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// New creates a raw result with initialized maps.
func New(source string, dataType DataType, confidence float64) *RawResult {
	return &RawResult{
		Source:     source,
		DataType:   dataType,
		Confidence: confidence,
		Fields:     make(map[string]any),
		CapturedAt: time.Now().UTC(),
		Metadata:   make(map[string]any),
	}
}

// Field returns the string form of a result field, if present and non-empty.
func (r *RawResult) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return "", false
	}
	return s, true
}

// SetMeta attaches a metadata annotation, allocating the map if needed.
func (r *RawResult) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// SearchText flattens string field values into a single blob for
// full-text indexing.
func (r *RawResult) SearchText() string {
	var parts []string
	for _, v := range r.Fields {
		switch val := v.(type) {
		case string:
			parts = append(parts, val)
		case []string:
			parts = append(parts, val...)
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// RankedResponse is the final ordered result set for one query.
type RankedResponse struct {
	QueryID string `json:"query_id"`

	// Results are ordered by descending blended confidence.
	Results []*RawResult `json:"results"`

	// Total is the number of results after filtering and truncation.
	Total int `json:"total"`

	// SearchTimeMs is the elapsed pipeline wall time.
	SearchTimeMs int64 `json:"search_time_ms"`

	// SourcesQueried lists the distinct source names that contributed.
	SourcesQueried []string `json:"sources_queried"`

	// ConfidenceScores maps each contributing source to its confidence.
	ConfidenceScores map[string]float64 `json:"confidence_scores"`

	// Metadata carries free-form response annotations.
	Metadata map[string]any `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewRankedResponse assembles a response from ranked results.
func NewRankedResponse(queryID string, results []*RawResult, elapsed time.Duration) *RankedResponse {
	resp := &RankedResponse{
		QueryID:          queryID,
		Results:          results,
		Total:            len(results),
		SearchTimeMs:     elapsed.Milliseconds(),
		ConfidenceScores: make(map[string]float64),
		Metadata:         make(map[string]any),
		Timestamp:        time.Now().UTC(),
	}

	seen := make(map[string]struct{})
	for _, r := range results {
		if _, ok := seen[r.Source]; !ok {
			seen[r.Source] = struct{}{}
			resp.SourcesQueried = append(resp.SourcesQueried, r.Source)
		}
		resp.ConfidenceScores[r.Source] = r.Confidence
	}
	return resp
}
