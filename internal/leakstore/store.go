// Package leakstore provides a Redis-backed store of breach records with
// lookup-by-field access, and a provider adapter so the store
// participates in search fan-out.
package leakstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracefind/trace-search/internal/pkg/hash"
)

// Record is a single breach record.
type Record struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	HasPassword bool      `json:"has_password"`
	BreachName  string    `json:"breach_name,omitempty"`
	BreachDate  string    `json:"breach_date,omitempty"`
	Source      string    `json:"source,omitempty"`
	Confidence  float64   `json:"confidence"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Store persists breach records in Redis, indexed per lookup field.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects to Redis and returns a breach record store.
func NewStore(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewStoreWithClient(client), nil
}

// NewStoreWithClient wraps an existing Redis client. Used by tests and
// by callers that share a connection pool.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		prefix: "trace:leaks:",
	}
}

// Add stores a record and indexes it by email, domain, and username.
// The record id is derived from its identifying fields, so re-importing
// the same record is a no-op overwrite.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if rec.Email == "" {
		return fmt.Errorf("record email is required")
	}
	if rec.ID == "" {
		rec.ID = hash.RecordID(rec.Email, rec.BreachName, rec.Username)
	}
	if rec.Domain == "" {
		if at := strings.LastIndex(rec.Email, "@"); at != -1 {
			rec.Domain = rec.Email[at+1:]
		}
	}
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.prefix+"record:"+rec.ID, data, 0)
	pipe.SAdd(ctx, s.prefix+"email:"+strings.ToLower(rec.Email), rec.ID)
	if rec.Domain != "" {
		pipe.SAdd(ctx, s.prefix+"domain:"+strings.ToLower(rec.Domain), rec.ID)
	}
	if rec.Username != "" {
		pipe.SAdd(ctx, s.prefix+"username:"+strings.ToLower(rec.Username), rec.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing record: %w", err)
	}
	return nil
}

// LookupByEmail returns all records for an email address.
func (s *Store) LookupByEmail(ctx context.Context, email string) ([]Record, error) {
	return s.lookup(ctx, "email:"+strings.ToLower(email))
}

// LookupByDomain returns all records for a domain.
func (s *Store) LookupByDomain(ctx context.Context, domain string) ([]Record, error) {
	return s.lookup(ctx, "domain:"+strings.ToLower(domain))
}

// LookupByUsername returns all records for a username.
func (s *Store) LookupByUsername(ctx context.Context, username string) ([]Record, error) {
	return s.lookup(ctx, "username:"+strings.ToLower(username))
}

func (s *Store) lookup(ctx context.Context, indexKey string) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, s.prefix+indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", indexKey, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + "record:" + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	records := make([]Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry with an expired or deleted record.
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping verifies the backing connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
