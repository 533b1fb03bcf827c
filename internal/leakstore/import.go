package leakstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ImportStats summarizes a CSV import.
type ImportStats struct {
	Imported int
	Skipped  int
}

// ImportCSV reads breach records from CSV input with the header
// email,password,username,domain,breach_name,breach_date and stores
// them. Rows without an email are skipped. Passwords are never stored;
// only their presence is recorded.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, source string) (ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("reading CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return stats, fmt.Errorf("CSV is missing an email column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}

		email := field(row, "email")
		if email == "" || !strings.Contains(email, "@") {
			stats.Skipped++
			continue
		}

		rec := Record{
			Email:       email,
			Username:    field(row, "username"),
			Domain:      field(row, "domain"),
			HasPassword: field(row, "password") != "",
			BreachName:  field(row, "breach_name"),
			BreachDate:  field(row, "breach_date"),
			Source:      source,
			Confidence:  0.75,
		}

		if err := s.Add(ctx, rec); err != nil {
			stats.Skipped++
			continue
		}
		stats.Imported++
	}

	return stats, nil
}
