package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/rs/zerolog/log"
)

// Querier is the data source handle injected into repositories. Failures come
// back as *domain.DataSourceError, malformed batches as *domain.SchemaError.
type Querier interface {
	QueryMetrics(ctx context.Context, query string, args ...interface{}) ([]domain.StockMetricRow, error)
	QueryDates(ctx context.Context, query string, args ...interface{}) ([]time.Time, error)
}

// CachedQuerier memoizes QueryMetrics by exact query text and arguments.
type CachedQuerier struct {
	next  Querier
	cache cache.QueryCache
}

func NewCachedQuerier(next Querier, cacheImpl cache.QueryCache) *CachedQuerier {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopQueryCache()
	}
	return &CachedQuerier{next: next, cache: cacheImpl}
}

func (q *CachedQuerier) QueryMetrics(ctx context.Context, query string, args ...interface{}) ([]domain.StockMetricRow, error) {
	key := cache.QueryKey(query, args...)

	if rows, ok, err := q.cache.Get(ctx, key); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("stock metrics: cache get failed")
	}

	rows, err := q.next.QueryMetrics(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if err := q.cache.Set(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("stock metrics: cache set failed")
	}

	return rows, nil
}

// QueryDates is not cached; the date picker is cheap and should stay fresh.
func (q *CachedQuerier) QueryDates(ctx context.Context, query string, args ...interface{}) ([]time.Time, error) {
	return q.next.QueryDates(ctx, query, args...)
}

// Invalidate drops every memoized result.
func (q *CachedQuerier) Invalidate(ctx context.Context) error {
	return q.cache.InvalidateAll(ctx)
}
