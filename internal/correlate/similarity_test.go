package correlate

import (
	"math"
	"testing"

	"github.com/tracefind/trace-search/internal/result"
)

func TestFieldSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
		delta    float64
	}{
		{
			name:     "exact match",
			a:        "John Doe",
			b:        "John Doe",
			expected: 1.0,
			delta:    0.001,
		},
		{
			name:     "case and whitespace folded",
			a:        "  JOHN DOE ",
			b:        "john doe",
			expected: 1.0,
			delta:    0.001,
		},
		{
			name:     "reversed word order",
			a:        "John Doe",
			b:        "Doe John",
			expected: 1.0,
			delta:    0.001,
		},
		{
			name:     "partial token overlap",
			a:        "John Michael Doe",
			b:        "John Doe",
			expected: 2.0 / math.Sqrt(6), // 2 shared of 3x2 tokens
			delta:    0.001,
		},
		{
			name:     "single word typo",
			a:        "johnson",
			b:        "jonson",
			expected: 1.0 - 1.0/7.0,
			delta:    0.001,
		},
		{
			name:     "empty value",
			a:        "",
			b:        "John",
			expected: 0,
			delta:    0.001,
		},
		{
			name:     "disjoint multi-word",
			a:        "Jane Smith",
			b:        "Bob Jones",
			expected: 0,
			delta:    0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("FieldSimilarity(%q, %q) = %f, expected %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestFieldSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"John Doe", "Doe John"},
		{"johnson", "jonson"},
		{"John Michael Doe", "John Doe"},
	}
	for _, p := range pairs {
		ab := FieldSimilarity(p[0], p[1])
		ba := FieldSimilarity(p[1], p[0])
		if math.Abs(ab-ba) > 0.0001 {
			t.Errorf("FieldSimilarity not symmetric for %q/%q: %f vs %f", p[0], p[1], ab, ba)
		}
	}
}

func TestResultSimilarity(t *testing.T) {
	a := result.New(result.SourceCourtRecords, result.TypeCourtRecords, 0.9)
	a.Fields["name"] = "John Doe"
	a.Fields["email"] = "john.doe@example.com"

	b := result.New(result.SourceSocialMedia, result.TypeSocialMedia, 0.6)
	b.Fields["name"] = "John Doe"
	b.Fields["email"] = "john.doe@example.com"
	b.Fields["phone"] = "5551234567"

	// Only name and email are shared; both match exactly.
	if got := ResultSimilarity(a, b); math.Abs(got-1.0) > 0.001 {
		t.Errorf("Expected similarity 1.0 over shared fields, got %f", got)
	}
}

func TestResultSimilarityNoSharedFields(t *testing.T) {
	a := result.New(result.SourcePhoneDirectories, result.TypePhoneInfo, 0.7)
	a.Fields["phone"] = "5551234567"

	b := result.New(result.SourceEmailDatabases, result.TypeEmailInfo, 0.7)
	b.Fields["email"] = "john@example.com"

	if got := ResultSimilarity(a, b); got != 0 {
		t.Errorf("Expected similarity 0 with no shared fields, got %f", got)
	}
}

func TestResultSimilarityMixed(t *testing.T) {
	a := result.New(result.SourceCourtRecords, result.TypeCourtRecords, 0.9)
	a.Fields["name"] = "John Doe"
	a.Fields["email"] = "john@example.com"

	b := result.New(result.SourceSocialMedia, result.TypeSocialMedia, 0.6)
	b.Fields["name"] = "John Doe"
	b.Fields["email"] = "jane@other.org"

	got := ResultSimilarity(a, b)
	if got >= 1.0 || got <= 0 {
		t.Errorf("Expected similarity strictly between 0 and 1, got %f", got)
	}
}
