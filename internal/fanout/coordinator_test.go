package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tracefind/trace-search/internal/bus"
	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/provider"
	"github.com/tracefind/trace-search/internal/result"
)

// fakeProvider returns canned results or a canned error.
type fakeProvider struct {
	name    string
	results []*result.RawResult
	err     error
	delay   time.Duration
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CanHandle(fields map[string]struct{}) bool {
	_, ok := fields["name"]
	return ok
}

func (f *fakeProvider) Search(ctx context.Context, q *result.Query) ([]*result.RawResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

func testConfig() Config {
	return Config{
		DispatchDelay: 0, // no pacing in tests
		CallTimeout:   time.Second,
	}
}

func makeResult(source string, confidence float64) *result.RawResult {
	r := result.New(source, result.TypePersonalInfo, confidence)
	r.Fields["name"] = "John Doe"
	return r
}

func TestExecuteCollectsFromAllProviders(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "a", results: []*result.RawResult{makeResult("a", 0.8)}})
	reg.Register(&fakeProvider{name: "b", results: []*result.RawResult{makeResult("b", 0.7), makeResult("b", 0.6)}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	collected, stats := c.Execute(context.Background(), q)

	if stats.ProvidersQueried != 2 {
		t.Errorf("Expected 2 providers queried, got %d", stats.ProvidersQueried)
	}
	if len(collected) != 3 {
		t.Errorf("Expected 3 results, got %d", len(collected))
	}
}

func TestExecuteIsolatesProviderFailure(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "broken", err: errors.New("connection refused")})
	reg.Register(&fakeProvider{name: "working", results: []*result.RawResult{makeResult("working", 0.8)}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	collected, stats := c.Execute(context.Background(), q)

	if stats.ProvidersFailed != 1 {
		t.Errorf("Expected 1 failed provider, got %d", stats.ProvidersFailed)
	}
	if len(collected) != 1 {
		t.Fatalf("Expected 1 result from the working provider, got %d", len(collected))
	}
	if collected[0].Source != "working" {
		t.Errorf("Expected result from working provider, got %s", collected[0].Source)
	}
}

func TestExecutePublishesProviderFailures(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "broken", err: errors.New("connection refused")})
	reg.Register(&fakeProvider{name: "working", results: []*result.RawResult{makeResult("working", 0.8)}})

	eventBus := bus.NewMemoryBus()
	defer eventBus.Close()

	events := make(chan bus.Event, 1)
	eventBus.Subscribe(context.Background(), bus.TopicProviderFailed, func(ctx context.Context, event bus.Event) error {
		events <- event
		return nil
	})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, eventBus)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	c.Execute(context.Background(), q)

	select {
	case event := <-events:
		if event.QueryID != q.ID {
			t.Errorf("Event query ID = %s, want %s", event.QueryID, q.ID)
		}
		payload, ok := event.Payload.(map[string]any)
		if !ok {
			t.Fatalf("Unexpected payload type %T", event.Payload)
		}
		if payload["source"] != "broken" {
			t.Errorf("Event source = %v, want broken", payload["source"])
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for provider failure event")
	}
}

func TestExecuteSkipsIncapableProviders(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "name-only", results: []*result.RawResult{makeResult("name-only", 0.8)}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"email": "john@example.com"})

	collected, stats := c.Execute(context.Background(), q)

	if stats.ProvidersQueried != 0 {
		t.Errorf("Expected no providers queried, got %d", stats.ProvidersQueried)
	}
	if len(collected) != 0 {
		t.Errorf("Expected no results, got %d", len(collected))
	}
}

func TestExecutePartialResultsOnDeadline(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "fast", results: []*result.RawResult{makeResult("fast", 0.8)}})
	reg.Register(&fakeProvider{name: "slow", delay: 5 * time.Second, results: []*result.RawResult{makeResult("slow", 0.9)}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	collected, _ := c.Execute(ctx, q)

	if len(collected) != 1 {
		t.Fatalf("Expected 1 partial result, got %d", len(collected))
	}
	if collected[0].Source != "fast" {
		t.Errorf("Expected partial result from fast provider, got %s", collected[0].Source)
	}
}

func TestExecuteAppliesSourceFilters(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "a", results: []*result.RawResult{makeResult("a", 0.8)}})
	reg.Register(&fakeProvider{name: "b", results: []*result.RawResult{makeResult("b", 0.8)}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.Filters = &result.Filters{ExcludeSources: []string{"b"}}

	collected, stats := c.Execute(context.Background(), q)

	if len(collected) != 1 || collected[0].Source != "a" {
		t.Fatalf("Expected only source a after filtering, got %v", collected)
	}
	if stats.FilteredOut != 1 {
		t.Errorf("Expected 1 filtered out, got %d", stats.FilteredOut)
	}
}

func TestExecuteAppliesConfidenceFilter(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "a", results: []*result.RawResult{
		makeResult("a", 0.9),
		makeResult("a", 0.3),
	}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	minConf := 0.5
	q.Filters = &result.Filters{MinConfidence: &minConf}

	collected, _ := c.Execute(context.Background(), q)

	if len(collected) != 1 || collected[0].Confidence != 0.9 {
		t.Fatalf("Expected only the high-confidence result, got %v", collected)
	}
}

func TestExecuteAppliesDateRange(t *testing.T) {
	reg := provider.NewRegistry()
	old := makeResult("a", 0.8)
	old.CapturedAt = time.Now().Add(-48 * time.Hour)
	recent := makeResult("a", 0.8)
	reg.Register(&fakeProvider{name: "a", results: []*result.RawResult{old, recent}})

	c := NewCoordinator(reg, testConfig(), logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})
	q.DateRange = &result.DateRange{Start: time.Now().Add(-24 * time.Hour)}

	collected, _ := c.Execute(context.Background(), q)

	if len(collected) != 1 {
		t.Fatalf("Expected 1 result inside the date range, got %d", len(collected))
	}
}

func TestExecutePacesDispatches(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register(&fakeProvider{name: "a", results: []*result.RawResult{makeResult("a", 0.8)}})
	reg.Register(&fakeProvider{name: "b", results: []*result.RawResult{makeResult("b", 0.8)}})
	reg.Register(&fakeProvider{name: "c", results: []*result.RawResult{makeResult("c", 0.8)}})

	cfg := Config{DispatchDelay: 50 * time.Millisecond, CallTimeout: time.Second}
	c := NewCoordinator(reg, cfg, logger.New("error", "text"), nil, nil)
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "John Doe"})

	start := time.Now()
	collected, _ := c.Execute(context.Background(), q)
	elapsed := time.Since(start)

	if len(collected) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(collected))
	}
	// Three dispatches with 50ms spacing: the first is immediate, the
	// remaining two wait at least 100ms combined.
	if elapsed < 100*time.Millisecond {
		t.Errorf("Dispatches not paced: all providers hit within %s", elapsed)
	}
}
