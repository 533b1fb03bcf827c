package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tracefind/trace-search/internal/result"
)

func testRecords() []DirectoryRecord {
	return []DirectoryRecord{
		{Name: "John Michael Doe", Email: "john.doe@example.com", Phone: "+15551234567", City: "Springfield", State: "IL"},
		{Name: "Jane Smith", Email: "jane@example.com"},
		{Name: "Robert Doe", Address: "123 Main Street"},
	}
}

func TestDirectoryMatchesByName(t *testing.T) {
	d := NewDirectory(testRecords())
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "Jane Smith"})

	results, err := d.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Fields["name"] != "Jane Smith" {
		t.Errorf("Expected Jane Smith, got %v", results[0].Fields["name"])
	}
	if results[0].Source != result.SourceDirectory {
		t.Errorf("Expected source %s, got %s", result.SourceDirectory, results[0].Source)
	}
}

func TestDirectoryExactMatchRaisesConfidence(t *testing.T) {
	d := NewDirectory(testRecords())

	exact := result.NewQuery(result.KindPerson, map[string]any{"email": "jane@example.com"})
	partial := result.NewQuery(result.KindPerson, map[string]any{"name": "Jane"})

	exactResults, _ := d.Search(context.Background(), exact)
	partialResults, _ := d.Search(context.Background(), partial)

	if len(exactResults) != 1 || len(partialResults) != 1 {
		t.Fatalf("Expected 1 result each, got %d and %d", len(exactResults), len(partialResults))
	}
	if exactResults[0].Confidence <= partialResults[0].Confidence {
		t.Errorf("Exact match confidence %v should exceed partial %v",
			exactResults[0].Confidence, partialResults[0].Confidence)
	}
}

func TestDirectoryMatchesNameVariations(t *testing.T) {
	d := NewDirectory(testRecords())
	q := result.NewQuery(result.KindPerson, map[string]any{
		"name":            "J. M. Doe",
		"name_variations": []string{"john michael doe", "john doe"},
	})

	results, _ := d.Search(context.Background(), q)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result via name variation, got %d", len(results))
	}
	if results[0].Fields["name"] != "John Michael Doe" {
		t.Errorf("Expected John Michael Doe, got %v", results[0].Fields["name"])
	}
	// The variation hit is an exact one, so the bonus applies.
	if results[0].Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %v", results[0].Confidence)
	}
}

func TestDirectoryNoMatch(t *testing.T) {
	d := NewDirectory(testRecords())
	q := result.NewQuery(result.KindPerson, map[string]any{"name": "Nobody Here"})

	results, err := d.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestDirectoryCanHandle(t *testing.T) {
	d := NewDirectory(nil)

	if !d.CanHandle(map[string]struct{}{"name": {}}) {
		t.Error("Expected name queries to be handled")
	}
	if !d.CanHandle(map[string]struct{}{"phone": {}}) {
		t.Error("Expected phone queries to be handled")
	}
	if d.CanHandle(map[string]struct{}{"username": {}}) {
		t.Error("Expected username-only queries to be rejected")
	}
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "records.json")

	content := `[
		{"name": "John Doe", "email": "john@example.com", "confidence": 0.9},
		{"name": "Jane Smith"}
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write records file: %v", err)
	}

	d, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if len(d.records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(d.records))
	}

	q := result.NewQuery(result.KindPerson, map[string]any{"email": "john@example.com"})
	results, _ := d.Search(context.Background(), q)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	// Record confidence 0.9 plus the exact-match bonus.
	if results[0].Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %v", results[0].Confidence)
	}
}

func TestLoadDirectoryMissingFile(t *testing.T) {
	if _, err := LoadDirectory("/nonexistent/records.json"); err == nil {
		t.Error("Expected error for missing records file")
	}
}
