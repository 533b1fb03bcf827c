package result

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tracefind/trace-search/internal/pkg/errors"
)

// Query is a single search request. It is immutable after construction
// except for derived fields the normalizer merges into Fields.
type Query struct {
	// ID uniquely identifies this request and scopes its cached response.
	ID string `json:"query_id"`

	// Kind classifies the search (person, business, criminal, ...).
	Kind QueryKind `json:"kind"`

	// Fields maps field names to values. Keys are not predetermined;
	// providers decide which fields they can act on.
	Fields map[string]any `json:"fields"`

	// Filters optionally narrows the result set.
	Filters *Filters `json:"filters,omitempty"`

	// DateRange restricts results by capture timestamp.
	DateRange *DateRange `json:"date_range,omitempty"`

	// Geo restricts the geographic scope of the search.
	Geo *GeoScope `json:"geo,omitempty"`

	// ConfidenceThreshold is the minimum blended confidence for a result
	// to appear in the response. Range [0,1].
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// MaxResults caps the response length.
	MaxResults int `json:"max_results"`

	// Owner identifies the caller this query belongs to.
	Owner string `json:"owner,omitempty"`

	// CreatedAt is when the query was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// Filters narrows results by provenance and confidence.
type Filters struct {
	Sources          []string   `json:"sources,omitempty"`
	ExcludeSources   []string   `json:"exclude_sources,omitempty"`
	DataTypes        []DataType `json:"data_types,omitempty"`
	ExcludeDataTypes []DataType `json:"exclude_data_types,omitempty"`
	MinConfidence    *float64   `json:"min_confidence,omitempty"`
	MaxConfidence    *float64   `json:"max_confidence,omitempty"`
}

// DateRange bounds result capture timestamps. Zero values are open ends.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the range.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// GeoScope restricts a search geographically.
type GeoScope struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// DefaultConfidenceThreshold is applied when a query omits a threshold.
const DefaultConfidenceThreshold = 0.7

// DefaultMaxResults is applied when a query omits a result cap.
const DefaultMaxResults = 100

// NewQuery constructs a query with defaults applied and a fresh id.
func NewQuery(kind QueryKind, fields map[string]any) *Query {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Query{
		ID:                  uuid.NewString(),
		Kind:                kind,
		Fields:              fields,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxResults:          DefaultMaxResults,
		CreatedAt:           time.Now().UTC(),
	}
}

// Field returns the string form of a query field, if present and non-empty.
func (q *Query) Field(name string) (string, bool) {
	v, ok := q.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return "", false
	}
	return s, true
}

// FieldNames returns the set of field names present on the query.
func (q *Query) FieldNames() map[string]struct{} {
	names := make(map[string]struct{}, len(q.Fields))
	for k := range q.Fields {
		names[k] = struct{}{}
	}
	return names
}

// Validate rejects malformed queries before fan-out begins.
func (q *Query) Validate() error {
	if q.ID == "" {
		return errors.ValidationError("query id is required")
	}
	if q.ConfidenceThreshold < 0 || q.ConfidenceThreshold > 1 {
		return errors.ValidationError("confidence_threshold must be between 0 and 1")
	}
	if q.MaxResults < 1 {
		return errors.ValidationError("max_results must be at least 1")
	}
	if q.Filters != nil {
		if f := q.Filters.MinConfidence; f != nil && (*f < 0 || *f > 1) {
			return errors.ValidationError("filters.min_confidence must be between 0 and 1")
		}
		if f := q.Filters.MaxConfidence; f != nil && (*f < 0 || *f > 1) {
			return errors.ValidationError("filters.max_confidence must be between 0 and 1")
		}
	}
	if !q.hasSearchKey() {
		return errors.ValidationError("query has no usable search key")
	}
	if q.DateRange != nil && !q.DateRange.Start.IsZero() && !q.DateRange.End.IsZero() &&
		q.DateRange.End.Before(q.DateRange.Start) {
		return errors.ValidationError("date_range end must not precede start")
	}
	return nil
}

func (q *Query) hasSearchKey() bool {
	for k := range q.Fields {
		if _, ok := q.Field(k); ok {
			return true
		}
	}
	return false
}
