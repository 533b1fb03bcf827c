package index

import (
	"context"
	"sort"
	"sync"

	"github.com/tracefind/trace-search/internal/pkg/hash"
	"github.com/tracefind/trace-search/internal/result"
)

// MemoryIndex is an in-process inverted index for single-instance
// deployments and tests.
type MemoryIndex struct {
	mu    sync.RWMutex
	terms map[string]map[string]struct{}
	docs  map[string]Doc
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		terms: make(map[string]map[string]struct{}),
		docs:  make(map[string]Doc),
	}
}

func (m *MemoryIndex) Index(_ context.Context, queryID string, position int, r *result.RawResult) error {
	doc := Doc{
		ID:         hash.ResultID(queryID, position),
		QueryID:    queryID,
		Source:     r.Source,
		DataType:   string(r.DataType),
		Confidence: r.Confidence,
		Text:       r.SearchText(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	for _, tok := range tokenize(doc.Text) {
		ids, ok := m.terms[tok]
		if !ok {
			ids = make(map[string]struct{})
			m.terms[tok] = ids
		}
		ids[doc.ID] = struct{}{}
	}
	return nil
}

func (m *MemoryIndex) Lookup(_ context.Context, term string) ([]Doc, error) {
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Multi-token terms require every token to match.
	candidates := m.terms[tokens[0]]
	docs := make([]Doc, 0, len(candidates))
	for id := range candidates {
		matched := true
		for _, tok := range tokens[1:] {
			if _, ok := m.terms[tok][id]; !ok {
				matched = false
				break
			}
		}
		if matched {
			docs = append(docs, m.docs[id])
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Confidence != docs[j].Confidence {
			return docs[i].Confidence > docs[j].Confidence
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (m *MemoryIndex) Ping(context.Context) error { return nil }

func (m *MemoryIndex) Close() error { return nil }
