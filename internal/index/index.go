// Package index provides the full-text index gateway. Ranked results
// are indexed best-effort after each search; indexing failures never
// fail the search itself.
package index

import (
	"context"
	"strings"
	"unicode"

	"github.com/tracefind/trace-search/internal/result"
)

// Doc is an indexed result document.
type Doc struct {
	ID       string `json:"id"`
	QueryID  string `json:"query_id"`
	Source   string `json:"source"`
	DataType string `json:"data_type"`

	// Confidence is the blended confidence at index time.
	Confidence float64 `json:"confidence"`

	// Text is the flattened searchable text of the result's fields.
	Text string `json:"text"`
}

// Gateway is the full-text index abstraction.
type Gateway interface {
	// Index adds one ranked result to the index.
	Index(ctx context.Context, queryID string, position int, r *result.RawResult) error
	// Lookup returns documents whose text contains the term.
	Lookup(ctx context.Context, term string) ([]Doc, error)
	// Ping reports backend health.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// minTokenLen drops noise tokens from the term index.
const minTokenLen = 2

// tokenize lowercases text and splits it on any non-alphanumeric rune.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < minTokenLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}
