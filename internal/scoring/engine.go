// Package scoring computes multi-factor confidence scores for raw
// results and correlated entities: data quality, relevance to the
// query, and static source reliability.
package scoring

import (
	"regexp"
	"strings"
	"time"

	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/result"
)

// Config configures the scoring engine.
type Config struct {
	// QualityWeight, RelevanceWeight, and ReliabilityWeight combine the
	// three sub-scores into the composite. They should sum to 1.
	QualityWeight     float64
	RelevanceWeight   float64
	ReliabilityWeight float64

	// Reliability is the static per-source reliability table.
	Reliability map[string]float64

	// DefaultReliability applies to sources absent from the table.
	DefaultReliability float64
}

// DefaultConfig returns the standard weights and reliability table.
func DefaultConfig() Config {
	return Config{
		QualityWeight:     0.3,
		RelevanceWeight:   0.4,
		ReliabilityWeight: 0.3,
		Reliability: map[string]float64{
			result.SourceCourtRecords:      0.95,
			result.SourcePropertyRecords:   0.90,
			result.SourceGovernmentAPIs:    0.85,
			result.SourceBusinessRecords:   0.80,
			result.SourcePhoneDirectories:  0.75,
			result.SourceNewsMedia:         0.70,
			result.SourceSocialMedia:       0.60,
			result.SourceEntityCorrelation: 0.85,
		},
		DefaultReliability: 0.5,
	}
}

// Engine scores results against a query.
type Engine struct {
	cfg Config
	log *logger.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if cfg.Reliability == nil {
		cfg = DefaultConfig()
	}
	return &Engine{
		cfg: cfg,
		log: log,
	}
}

// Composite computes the weighted multi-factor score in [0,1].
func (e *Engine) Composite(r *result.RawResult, q *result.Query) float64 {
	score := e.cfg.QualityWeight*e.Quality(r) +
		e.cfg.RelevanceWeight*e.Relevance(r, q) +
		e.cfg.ReliabilityWeight*e.Reliability(r.Source)
	return min(score, 1.0)
}

// Blend folds the composite score into a result's confidence. The
// provider's self-reported confidence is never overridden, only
// averaged with the engine's score. The composite is recorded in the
// result metadata for rank tie-breaking.
func (e *Engine) Blend(r *result.RawResult, q *result.Query) {
	composite := e.Composite(r, q)
	r.SetMeta(result.MetaCompositeScore, composite)
	r.Confidence = (r.Confidence + composite) / 2
}

// BlendAll blends every result in place.
func (e *Engine) BlendAll(results []*result.RawResult, q *result.Query) {
	for _, r := range results {
		e.Blend(r, q)
	}
}

// AnnotateSynthetic records the composite score of a synthetic cluster
// result without blending: its confidence stays the mean of its
// members' blended confidences.
func (e *Engine) AnnotateSynthetic(r *result.RawResult, q *result.Query) {
	r.SetMeta(result.MetaCompositeScore, e.Composite(r, q))
}

// Quality scores the intrinsic quality of a record:
// 0.4·completeness + 0.3·freshness + 0.3·consistency.
func (e *Engine) Quality(r *result.RawResult) float64 {
	score := 0.4 * completeness(r)

	if age, ok := recordAge(r); ok {
		freshness := 1.0 - age.Hours()/(24*365)
		if freshness < 0 {
			freshness = 0
		}
		score += 0.3 * freshness
	}

	score += 0.3 * consistency(r)
	return score
}

// completeness is the fraction of the comparable fields present.
func completeness(r *result.RawResult) float64 {
	present := 0
	for _, field := range result.ComparableFields {
		if _, ok := r.Field(field); ok {
			present++
		}
	}
	return float64(present) / float64(len(result.ComparableFields))
}

// recordAge reads an explicit timestamp field if the provider supplied
// one. Absence means freshness contributes nothing.
func recordAge(r *result.RawResult) (time.Duration, bool) {
	v, ok := r.Fields["timestamp"]
	if !ok {
		return 0, false
	}

	switch ts := v.(type) {
	case time.Time:
		return time.Since(ts), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			return time.Since(parsed), true
		}
	}
	return 0, false
}

// loosePhonePattern accepts anything phone-shaped: digits with optional
// punctuation and a leading plus.
var loosePhonePattern = regexp.MustCompile(`^\+?[\d\s\-().]+$`)

// consistency runs internal cross-field checks and returns the fraction
// that passed. No applicable checks counts as fully consistent, so
// sparse records are not penalized.
func consistency(r *result.RawResult) float64 {
	checks := 0
	failed := 0

	// The email local part should share a token with the name.
	if name, ok := r.Field("name"); ok {
		if email, ok := r.Field("email"); ok {
			checks++
			if !emailMatchesName(email, name) {
				failed++
			}
		}
	}

	// The phone field should look like a phone number.
	if phone, ok := r.Field("phone"); ok {
		checks++
		if !loosePhonePattern.MatchString(phone) {
			failed++
		}
	}

	if checks == 0 {
		return 1.0
	}
	return 1.0 - float64(failed)/float64(checks)
}

func emailMatchesName(email, name string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	local := strings.ToLower(email[:at])

	for _, tok := range strings.Fields(strings.ToLower(name)) {
		if len(tok) >= 2 && strings.Contains(local, tok) {
			return true
		}
	}
	return false
}

// Relevance compares the result's fields against the query's:
// 0.6·exact-match ratio + 0.4·partial-match ratio, each over the count
// of fields present on both sides.
func (e *Engine) Relevance(r *result.RawResult, q *result.Query) float64 {
	compared := 0
	exact := 0
	partial := 0

	for _, field := range result.ComparableFields {
		qv, qok := q.Field(field)
		rv, rok := r.Field(field)
		if !qok || !rok {
			continue
		}
		compared++

		ql := strings.ToLower(qv)
		rl := strings.ToLower(rv)
		if ql == rl {
			exact++
		}
		if strings.Contains(rl, ql) || strings.Contains(ql, rl) {
			partial++
		}
	}

	if compared == 0 {
		return 0
	}
	return 0.6*float64(exact)/float64(compared) + 0.4*float64(partial)/float64(compared)
}

// Reliability looks up the static per-source reliability score.
func (e *Engine) Reliability(source string) float64 {
	if score, ok := e.cfg.Reliability[source]; ok {
		return score
	}
	return e.cfg.DefaultReliability
}
