package leakstore

import (
	"context"

	"github.com/tracefind/trace-search/internal/result"
)

// Provider adapts the breach record store to the data-provider
// capability interface so it participates in fan-out.
type Provider struct {
	store *Store
}

// NewProvider wraps a store as a data provider.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return result.SourceLeakDatabases
}

// CanHandle implements provider.Provider. The store can answer queries
// that carry an email, a username, or an email domain.
func (p *Provider) CanHandle(fields map[string]struct{}) bool {
	for _, f := range []string{"email", "username", "email_domain"} {
		if _, ok := fields[f]; ok {
			return true
		}
	}
	return false
}

// Search implements provider.Provider. Lookup order: exact email, then
// username, then domain; the first field that yields records wins so a
// domain query does not drown an exact email hit.
func (p *Provider) Search(ctx context.Context, q *result.Query) ([]*result.RawResult, error) {
	var (
		records []Record
		err     error
	)

	if email, ok := q.Field("email"); ok {
		records, err = p.store.LookupByEmail(ctx, email)
	}
	if err == nil && len(records) == 0 {
		if username, ok := q.Field("username"); ok {
			records, err = p.store.LookupByUsername(ctx, username)
		}
	}
	if err == nil && len(records) == 0 {
		if domain, ok := q.Field("email_domain"); ok {
			records, err = p.store.LookupByDomain(ctx, domain)
		}
	}
	if err != nil {
		return nil, err
	}

	results := make([]*result.RawResult, 0, len(records))
	for _, rec := range records {
		r := result.New(p.Name(), result.TypeBreachRecords, rec.Confidence)
		r.Fields["email"] = rec.Email
		if rec.Username != "" {
			r.Fields["username"] = rec.Username
		}
		if rec.Domain != "" {
			r.Fields["domain"] = rec.Domain
		}
		if rec.BreachName != "" {
			r.Fields["breach_name"] = rec.BreachName
		}
		if rec.BreachDate != "" {
			r.Fields["breach_date"] = rec.BreachDate
		}
		r.Fields["has_password"] = rec.HasPassword
		if !rec.ImportedAt.IsZero() {
			r.CapturedAt = rec.ImportedAt
		}
		results = append(results, r)
	}

	return results, nil
}
