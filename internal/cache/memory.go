package cache

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

type memoryEntry struct {
	rows      []domain.StockMetricRow
	expiresAt time.Time
}

// MemoryQueryCache is an in-process QueryCache with a TTL and an entry cap.
type MemoryQueryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryQueryCache builds an in-process cache. maxEntries <= 0 means unbounded.
func NewMemoryQueryCache(ttl time.Duration, maxEntries int) *MemoryQueryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryQueryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryQueryCache) Get(ctx context.Context, key string) ([]domain.StockMetricRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}

	return copyRows(entry.rows), true, nil
}

func (c *MemoryQueryCache) Set(ctx context.Context, key string, rows []domain.StockMetricRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.entries[key] = memoryEntry{
		rows:      copyRows(rows),
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

func (c *MemoryQueryCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len is the number of stored entries, expired ones included.
func (c *MemoryQueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired entries, or the one closest to expiry if none are.
func (c *MemoryQueryCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = key, entry.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func copyRows(rows []domain.StockMetricRow) []domain.StockMetricRow {
	if rows == nil {
		return nil
	}
	return append([]domain.StockMetricRow(nil), rows...)
}

var _ QueryCache = (*MemoryQueryCache)(nil)
