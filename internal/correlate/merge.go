package correlate

import (
	"github.com/tracefind/trace-search/internal/result"
)

// MergeFields merges member field mappings into one view. The first
// writer wins per key, except that two list values concatenate and two
// mapping values shallow-merge (new keys win on conflict).
func MergeFields(members []*result.RawResult) map[string]any {
	merged := make(map[string]any)

	for _, m := range members {
		for key, value := range m.Fields {
			existing, ok := merged[key]
			if !ok {
				merged[key] = value
				continue
			}

			switch ev := existing.(type) {
			case []any:
				if nv, ok := asList(value); ok {
					merged[key] = append(ev, nv...)
				}
			case []string:
				if nv, ok := value.([]string); ok {
					merged[key] = append(ev, nv...)
				} else if nv, ok := asList(value); ok {
					anyList := make([]any, 0, len(ev)+len(nv))
					for _, s := range ev {
						anyList = append(anyList, s)
					}
					merged[key] = append(anyList, nv...)
				}
			case map[string]any:
				if nv, ok := value.(map[string]any); ok {
					for k, v := range nv {
						ev[k] = v
					}
				}
			}
		}
	}

	return merged
}

func asList(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Synthesize builds the merged synthetic result for a cluster. Member
// confidences are expected to be blended already; the synthetic's
// confidence is their arithmetic mean. Members are annotated with the
// cluster id and the correlation confidence in place.
func Synthesize(cluster Cluster, all []*result.RawResult) *result.RawResult {
	members := make([]*result.RawResult, len(cluster.Members))
	for i, idx := range cluster.Members {
		members[i] = all[idx]
	}

	var sum float64
	sources := make([]string, len(members))
	for i, m := range members {
		sum += m.Confidence
		sources[i] = m.Source
	}
	mean := sum / float64(len(members))

	synthetic := result.New(result.SourceEntityCorrelation, result.TypeCorrelatedEntity, mean)
	synthetic.Fields = MergeFields(members)
	synthetic.SetMeta(result.MetaEntityID, cluster.ID)
	synthetic.SetMeta(result.MetaSourceCount, len(members))
	synthetic.SetMeta(result.MetaSources, sources)

	for _, m := range members {
		m.SetMeta(result.MetaCorrelatedEntityID, cluster.ID)
		m.SetMeta(result.MetaCorrelationConfidence, mean)
	}

	return synthetic
}
