package correlate

import (
	"math"
	"strings"

	"github.com/tracefind/trace-search/internal/result"
)

// ResultSimilarity computes the similarity between two results as the
// arithmetic mean of per-field similarities over whichever comparable
// fields both results carry. No shared field means similarity 0.
func ResultSimilarity(a, b *result.RawResult) float64 {
	var sum float64
	compared := 0

	for _, field := range result.ComparableFields {
		av, aok := a.Field(field)
		bv, bok := b.Field(field)
		if !aok || !bok {
			continue
		}
		sum += FieldSimilarity(av, bv)
		compared++
	}

	if compared == 0 {
		return 0
	}
	return sum / float64(compared)
}

// FieldSimilarity compares two field values. Exact matches after case
// and whitespace folding score 1.0. Multi-word values fall back to
// token overlap, everything else to normalized edit distance.
func FieldSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	if len(strings.Fields(a)) > 1 && len(strings.Fields(b)) > 1 {
		return tokenSimilarity(a, b)
	}

	return levenshteinSimilarity(a, b)
}

// tokenSimilarity measures lexical overlap between two multi-word
// strings: the cosine of their token sets. Word order is ignored, so
// reversed name forms still match.
func tokenSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	shared := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			shared++
		}
	}

	return float64(shared) / math.Sqrt(float64(len(tokensA))*float64(len(tokensB)))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// levenshteinSimilarity converts edit distance into a similarity:
// 1 - distance / max(len(a), len(b)).
func levenshteinSimilarity(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance with the two-row dynamic program.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 0; i < len(a); i++ {
		curr[0] = i + 1
		for j := 0; j < len(b); j++ {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}
			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
