package index

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracefind/trace-search/internal/pkg/errors"
	"github.com/tracefind/trace-search/internal/pkg/hash"
	"github.com/tracefind/trace-search/internal/result"
)

const (
	docKeyPrefix  = "trace:index:doc:"
	termKeyPrefix = "trace:index:term:"
)

// RedisIndex is a redis-backed inverted index: one set of document IDs
// per term, plus the document JSON itself. Both sides carry the same
// TTL so term sets and documents expire together.
type RedisIndex struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIndex connects to redis and verifies the connection.
func NewRedisIndex(url string, ttl time.Duration) (*RedisIndex, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.IndexError("invalid redis url", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.IndexError("failed to connect to redis", err)
	}

	return &RedisIndex{client: client, ttl: ttl}, nil
}

// NewRedisIndexWithClient wraps an existing client.
func NewRedisIndexWithClient(client *redis.Client, ttl time.Duration) *RedisIndex {
	return &RedisIndex{client: client, ttl: ttl}
}

func (i *RedisIndex) Index(ctx context.Context, queryID string, position int, r *result.RawResult) error {
	doc := Doc{
		ID:         hash.ResultID(queryID, position),
		QueryID:    queryID,
		Source:     r.Source,
		DataType:   string(r.DataType),
		Confidence: r.Confidence,
		Text:       r.SearchText(),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.IndexError("failed to marshal document", err)
	}

	pipe := i.client.Pipeline()
	pipe.Set(ctx, docKeyPrefix+doc.ID, data, i.ttl)
	for _, tok := range tokenize(doc.Text) {
		key := termKeyPrefix + tok
		pipe.SAdd(ctx, key, doc.ID)
		pipe.Expire(ctx, key, i.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.IndexError("failed to index document", err)
	}
	return nil
}

func (i *RedisIndex) Lookup(ctx context.Context, term string) ([]Doc, error) {
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for n, tok := range tokens {
		keys[n] = termKeyPrefix + tok
	}

	ids, err := i.client.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, errors.IndexError("term lookup failed", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	docKeys := make([]string, len(ids))
	for n, id := range ids {
		docKeys[n] = docKeyPrefix + id
	}

	values, err := i.client.MGet(ctx, docKeys...).Result()
	if err != nil {
		return nil, errors.IndexError("document fetch failed", err)
	}

	docs := make([]Doc, 0, len(values))
	for _, v := range values {
		// Documents can expire between SInter and MGet.
		s, ok := v.(string)
		if !ok {
			continue
		}
		var doc Doc
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(a, b int) bool {
		if docs[a].Confidence != docs[b].Confidence {
			return docs[a].Confidence > docs[b].Confidence
		}
		return docs[a].ID < docs[b].ID
	})
	return docs, nil
}

func (i *RedisIndex) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

func (i *RedisIndex) Close() error {
	return i.client.Close()
}
