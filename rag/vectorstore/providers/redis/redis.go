// Package redis provides a VectorStore backed by Redis Stack's
// RediSearch vector similarity search (FT.SEARCH / FT.CREATE).
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultIndex     = "idx:documents"
	defaultPrefix    = "doc:"
	defaultDimension = 1536
)

// RedisClient is the subset of *goredis.Client the Store needs; it exists
// so tests can substitute a mock.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...any) *goredis.IntCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Do(ctx context.Context, args ...any) *goredis.Cmd
	Close() error
}

// Store is a VectorStore backed by Redis Stack's vector search.
type Store struct {
	client    RedisClient
	index     string
	prefix    string
	dimension int
}

// Option configures a Store.
type Option func(*Store)

// WithIndex overrides the RediSearch index name (default "idx:documents").
func WithIndex(index string) Option {
	return func(s *Store) { s.index = index }
}

// WithPrefix overrides the key prefix (default "doc:").
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithDimension overrides the vector dimension (default 1536).
func WithDimension(dim int) Option {
	return func(s *Store) { s.dimension = dim }
}

// WithClient overrides the Redis client, mainly for tests.
func WithClient(client RedisClient) Option {
	return func(s *Store) { s.client = client }
}

// New constructs a Store connected to addr, applying opts.
func New(addr string, opts ...Option) *Store {
	s := &Store{index: defaultIndex, prefix: defaultPrefix, dimension: defaultDimension}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{Addr: addr})
	}
	return s
}

// NewFromConfig constructs a Store from cfg.BaseURL (the Redis address)
// and cfg.Options["index"/"prefix"/"dimension"].
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	var opts []Option
	if index, ok := config.GetOption[string](cfg, "index"); ok && index != "" {
		opts = append(opts, WithIndex(index))
	}
	if prefix, ok := config.GetOption[string](cfg, "prefix"); ok && prefix != "" {
		opts = append(opts, WithPrefix(prefix))
	}
	if dim, ok := config.GetOption[float64](cfg, "dimension"); ok && dim > 0 {
		opts = append(opts, WithDimension(int(dim)))
	}
	return New(cfg.BaseURL, opts...), nil
}

// EnsureIndex creates the RediSearch index if it does not already exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	err := s.client.Do(ctx, "FT.CREATE", s.index,
		"ON", "HASH", "PREFIX", "1", s.prefix,
		"SCHEMA",
		"content", "TEXT",
		"embedding", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32", "DIM", s.dimension, "DISTANCE_METRIC", "COSINE",
	).Err()
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return err
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("redis: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		values := []any{"content", doc.Content, "embedding", float32ToBytes(embeddings[i])}
		for k, v := range doc.Metadata {
			values = append(values, k, fmt.Sprintf("%v", v))
		}
		if err := s.client.HSet(ctx, s.prefix+doc.ID, values...).Err(); err != nil {
			return fmt.Errorf("redis: hset %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	filterExpr := "*"
	if len(cfg.Filter) > 0 {
		var parts []string
		for key, val := range cfg.Filter {
			parts = append(parts, fmt.Sprintf("@%s:{%v}", key, val))
		}
		filterExpr = strings.Join(parts, " ")
	}

	queryStr := fmt.Sprintf("(%s)=>[KNN %d @embedding $vec AS score]", filterExpr, k)
	cmd := s.client.Do(ctx, "FT.SEARCH", s.index, queryStr,
		"PARAMS", "2", "vec", float32ToBytes(query),
		"SORTBY", "score",
		"DIALECT", "2",
	)

	docs, err := parseFTSearchResult(cmd, s.prefix, cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("redis: search: %w", err)
	}
	return docs, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + id
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}

// parseFTSearchResult decodes an FT.SEARCH reply shaped
// [total, key1, [field, value, ...], key2, [field, value, ...], ...].
func parseFTSearchResult(cmd *goredis.Cmd, prefix string, threshold float64) ([]schema.Document, error) {
	val, err := cmd.Result()
	if err != nil {
		return nil, err
	}

	slice, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("redis: unexpected FT.SEARCH result type %T", val)
	}
	if len(slice) == 0 {
		return nil, nil
	}

	total, ok := slice[0].(int64)
	if !ok {
		return nil, fmt.Errorf("redis: unexpected total format %T", slice[0])
	}
	if total == 0 {
		return nil, nil
	}

	var docs []schema.Document
	for i := 1; i+1 < len(slice); i += 2 {
		key, ok := slice[i].(string)
		if !ok {
			continue
		}
		fields, ok := slice[i+1].([]any)
		if !ok {
			continue
		}

		doc := schema.Document{ID: strings.TrimPrefix(key, prefix)}
		for j := 0; j+1 < len(fields); j += 2 {
			name, ok := fields[j].(string)
			if !ok {
				continue
			}
			value := fields[j+1]

			switch name {
			case "content":
				if s, ok := value.(string); ok {
					doc.Content = s
				}
			case "embedding":
				// Binary vector payload, not surfaced on the document.
			case "score":
				if s, ok := value.(string); ok {
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						doc.Score = 1 - f
					}
				}
			default:
				if doc.Metadata == nil {
					doc.Metadata = map[string]any{}
				}
				doc.Metadata[name] = value
			}
		}

		if threshold != 0 && doc.Score < threshold {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func float32ToBytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func init() {
	vectorstore.Register("redis", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
