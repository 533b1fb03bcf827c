// Package query provides query normalization for the search pipeline.
//
// The normalizer expands a caller's sparse query into canonical fields
// plus enumerated variant forms used only for fuzzy matching downstream.
// Derived fields are merged into the query's field mapping; no caller
// field is ever deleted or overwritten.
package query

import (
	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/result"
)

// Normalizer derives matching variants from recognized query fields.
type Normalizer struct {
	log *logger.Logger
}

// NewNormalizer creates a new query normalizer.
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize enhances the query in place and returns it. A failed
// enhancement for one field is logged and skipped; normalization never
// fails the whole query.
func (n *Normalizer) Normalize(q *result.Query) *result.Query {
	type enhancer struct {
		field string
		fn    func(string) (map[string]any, error)
	}

	enhancers := []enhancer{
		{"name", enhanceName},
		{"phone", enhancePhone},
		{"email", enhanceEmail},
		{"address", enhanceAddress},
	}

	for _, e := range enhancers {
		value, ok := q.Field(e.field)
		if !ok {
			continue
		}

		derived, err := e.fn(value)
		if err != nil {
			n.log.Warn("Field enhancement failed",
				"query_id", q.ID,
				"field", e.field,
				"error", err,
			)
			continue
		}

		for key, v := range derived {
			// Derived fields never clobber caller-supplied values.
			if _, exists := q.Fields[key]; !exists {
				q.Fields[key] = v
			}
		}
	}

	return q
}
