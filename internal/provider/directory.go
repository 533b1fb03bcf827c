package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tracefind/trace-search/internal/result"
)

// DirectoryRecord is one entry in a local directory records file.
type DirectoryRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zip_code,omitempty"`
	Occupation string `json:"occupation,omitempty"`

	// Confidence is the record's self-reported confidence; zero means
	// the provider default applies.
	Confidence float64 `json:"confidence,omitempty"`

	// CapturedAt is when the record was captured; zero means import time.
	CapturedAt time.Time `json:"captured_at,omitempty"`
}

// Directory is a provider backed by a local JSON records file. It stands
// in for external directory connectors during local operation and tests.
type Directory struct {
	name     string
	records  []DirectoryRecord
	baseline float64
}

// LoadDirectory reads records from a JSON file and builds a provider.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory records: %w", err)
	}

	var records []DirectoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing directory records: %w", err)
	}

	return NewDirectory(records), nil
}

// NewDirectory builds a directory provider from in-memory records.
func NewDirectory(records []DirectoryRecord) *Directory {
	return &Directory{
		name:     result.SourceDirectory,
		records:  records,
		baseline: 0.75,
	}
}

// Name implements Provider.
func (d *Directory) Name() string {
	return d.name
}

// CanHandle implements Provider. The directory answers identity-shaped
// queries only.
func (d *Directory) CanHandle(fields map[string]struct{}) bool {
	return hasAny(fields, "name", "email", "phone", "address")
}

// Search implements Provider. Matching is substring-based against the
// query's normalized variants; exact field hits raise the confidence.
func (d *Directory) Search(ctx context.Context, q *result.Query) ([]*result.RawResult, error) {
	var results []*result.RawResult

	for _, rec := range d.records {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		hits, exact := d.match(q, rec)
		if hits == 0 {
			continue
		}

		confidence := rec.Confidence
		if confidence == 0 {
			confidence = d.baseline
		}
		if exact {
			confidence = min(confidence+0.1, 1.0)
		}

		r := result.New(d.name, result.TypePersonalInfo, confidence)
		r.Fields["name"] = rec.Name
		if rec.Email != "" {
			r.Fields["email"] = rec.Email
		}
		if rec.Phone != "" {
			r.Fields["phone"] = rec.Phone
		}
		if rec.Address != "" {
			r.Fields["address"] = rec.Address
		}
		if rec.City != "" {
			r.Fields["city"] = rec.City
		}
		if rec.State != "" {
			r.Fields["state"] = rec.State
		}
		if rec.ZipCode != "" {
			r.Fields["zip_code"] = rec.ZipCode
		}
		if rec.Occupation != "" {
			r.Fields["occupation"] = rec.Occupation
		}
		if !rec.CapturedAt.IsZero() {
			r.CapturedAt = rec.CapturedAt
		}
		results = append(results, r)
	}

	return results, nil
}

// match counts matched fields and reports whether any was exact.
func (d *Directory) match(q *result.Query, rec DirectoryRecord) (hits int, exact bool) {
	checks := []struct {
		field    string
		variants string
		value    string
	}{
		{"name", "name_variations", rec.Name},
		{"email", "email_variations", rec.Email},
		{"phone", "phone_variations", rec.Phone},
		{"address", "", rec.Address},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		queryVal, ok := q.Field(c.field)
		if !ok {
			continue
		}

		candidates := []string{queryVal}
		if c.variants != "" {
			candidates = append(candidates, stringList(q.Fields[c.variants])...)
		}

		recVal := strings.ToLower(c.value)
		for _, cand := range candidates {
			cand = strings.ToLower(strings.TrimSpace(cand))
			if cand == "" {
				continue
			}
			if cand == recVal {
				hits++
				exact = true
				break
			}
			if strings.Contains(recVal, cand) || strings.Contains(cand, recVal) {
				hits++
				break
			}
		}
	}

	return hits, exact
}

// stringList coerces a field value into a string slice.
func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
