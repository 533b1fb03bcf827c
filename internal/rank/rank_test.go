package rank

import (
	"testing"

	"github.com/tracefind/trace-search/internal/result"
)

func scored(source string, confidence, composite float64) *result.RawResult {
	r := result.New(source, result.TypePersonalInfo, confidence)
	r.SetMeta(result.MetaCompositeScore, composite)
	return r
}

func TestRankDropsBelowThreshold(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0.7

	results := []*result.RawResult{
		scored(result.SourceCourtRecords, 0.9, 0.8),
		scored(result.SourceSocialMedia, 0.69, 0.5),
		scored(result.SourceNewsMedia, 0.7, 0.6), // exactly at threshold is kept
	}

	ranked, stats := Rank(results, q)

	if stats.Dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", stats.Dropped)
	}
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(ranked))
	}
	for _, r := range ranked {
		if r.Confidence < 0.7 {
			t.Errorf("Result below threshold survived: %f", r.Confidence)
		}
	}
}

func TestRankOrdersByConfidenceDescending(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0

	results := []*result.RawResult{
		scored(result.SourceSocialMedia, 0.6, 0.5),
		scored(result.SourceCourtRecords, 0.9, 0.8),
		scored(result.SourceNewsMedia, 0.75, 0.7),
	}

	ranked, _ := Rank(results, q)

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Confidence > ranked[i-1].Confidence {
			t.Errorf("Results out of order at %d: %f after %f", i, ranked[i].Confidence, ranked[i-1].Confidence)
		}
	}
}

func TestRankBreaksTiesByComposite(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0

	lowComposite := scored(result.SourceSocialMedia, 0.8, 0.5)
	highComposite := scored(result.SourceCourtRecords, 0.8, 0.9)

	ranked, _ := Rank([]*result.RawResult{lowComposite, highComposite}, q)

	if ranked[0] != highComposite {
		t.Error("Expected the higher composite sub-score to rank first on a confidence tie")
	}
}

func TestRankStableOnFullTies(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0

	first := scored(result.SourceCourtRecords, 0.8, 0.7)
	second := scored(result.SourceSocialMedia, 0.8, 0.7)

	ranked, _ := Rank([]*result.RawResult{first, second}, q)

	if ranked[0] != first || ranked[1] != second {
		t.Error("Fully tied results must keep their collection order")
	}
}

func TestRankTruncates(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0
	q.MaxResults = 2

	results := []*result.RawResult{
		scored(result.SourceCourtRecords, 0.9, 0.8),
		scored(result.SourceNewsMedia, 0.8, 0.7),
		scored(result.SourceSocialMedia, 0.7, 0.6),
	}

	ranked, stats := Rank(results, q)

	if len(ranked) != 2 {
		t.Fatalf("Expected 2 results after truncation, got %d", len(ranked))
	}
	if stats.Truncated != 1 {
		t.Errorf("Expected 1 truncated, got %d", stats.Truncated)
	}
	if ranked[0].Confidence != 0.9 || ranked[1].Confidence != 0.8 {
		t.Error("Truncation must keep the highest-confidence results")
	}
}

func TestRankEmptyInput(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	ranked, stats := Rank(nil, q)
	if len(ranked) != 0 || stats.Returned != 0 {
		t.Errorf("Expected empty ranking, got %d", len(ranked))
	}
}

func TestRankMissingCompositeTreatedAsZero(t *testing.T) {
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.ConfidenceThreshold = 0

	withComposite := scored(result.SourceCourtRecords, 0.8, 0.9)
	without := result.New(result.SourceSocialMedia, result.TypePersonalInfo, 0.8)

	ranked, _ := Rank([]*result.RawResult{without, withComposite}, q)

	if ranked[0] != withComposite {
		t.Error("A result without a composite annotation must lose confidence ties")
	}
}
