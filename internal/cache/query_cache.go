package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

const queryKeyPrefix = "stock_metrics:query"

// QueryCache memoizes metric query results by exact query text. Entries may
// be dropped at any time; the warehouse stays the source of truth.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]domain.StockMetricRow, bool, error)
	Set(ctx context.Context, key string, rows []domain.StockMetricRow) error
	InvalidateAll(ctx context.Context) error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// NewQueryCache picks the backend from config. A disabled cache is a noop.
func NewQueryCache(cfg config.CacheConfig) (QueryCache, error) {
	if !cfg.Enabled {
		return &noopQueryCache{}, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendRedis:
		client, ttl, err := newRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return &redisQueryCache{client: client, ttl: ttl}, nil
	case "", BackendMemory:
		return NewMemoryQueryCache(ttlFromConfig(cfg), cfg.MaxEntries), nil
	case BackendNone:
		return &noopQueryCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func NewNoopQueryCache() QueryCache {
	return &noopQueryCache{}
}

// QueryKey hashes the exact query text and its bound arguments.
func QueryKey(query string, args ...interface{}) string {
	raw := strings.TrimSpace(query)
	if len(args) > 0 {
		encoded, err := json.Marshal(args)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", args))
		}
		raw += "|" + string(encoded)
	}

	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", queryKeyPrefix, hex.EncodeToString(sum[:]))
}

type noopQueryCache struct{}

func (n *noopQueryCache) Get(ctx context.Context, key string) ([]domain.StockMetricRow, bool, error) {
	return nil, false, nil
}

func (n *noopQueryCache) Set(ctx context.Context, key string, rows []domain.StockMetricRow) error {
	return nil
}

func (n *noopQueryCache) InvalidateAll(ctx context.Context) error {
	return nil
}
