// Package cache holds the in-memory, radius-queryable mirror of the
// persistent registry.
package cache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/geo"
	"github.com/mapfold/poidex/internal/metrics"
)

// Fetcher reads the registry.
type Fetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]domain.Record, int, error)
	FetchNear(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Record, error)
}

// Excluder filters blacklisted identifiers on every read path.
type Excluder interface {
	Contains(id string) bool
}

// Merger folds regional fetches back into the snapshot without duplicating.
type Merger interface {
	Merge(existing, incoming []domain.Record) []domain.Record
}

// Cache is the spatial mirror. The snapshot is single-owner and updated via
// copy-and-replace; readers always see a consistent slice.
type Cache struct {
	registry  Fetcher
	blacklist Excluder
	merger    Merger
	pageSize  int
	logger    *zap.Logger

	mu       sync.RWMutex
	snapshot []domain.Record
}

// New creates an unloaded cache.
func New(registry Fetcher, blacklist Excluder, merger Merger, logger *zap.Logger) *Cache {
	return &Cache{
		registry:  registry,
		blacklist: blacklist,
		merger:    merger,
		pageSize:  200,
		logger:    logger,
	}
}

// Load replaces the snapshot with a full paginated read of the registry,
// dropping blacklisted rows.
func (c *Cache) Load(ctx context.Context) error {
	var snapshot []domain.Record
	offset := 0
	for offset >= 0 {
		page, next, err := c.registry.FetchPage(ctx, offset, c.pageSize)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		for _, rec := range page {
			if c.blacklist.Contains(rec.ID) {
				continue
			}
			snapshot = append(snapshot, rec)
		}
		offset = next
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	c.logger.Info("registry snapshot loaded", zap.Int("records", len(snapshot)))
	return nil
}

// Near returns snapshot records within radiusMeters of center. Records with
// invalid coordinates or blacklisted IDs never appear. When the snapshot is
// empty, or a populated snapshot has nothing for this region, the cache falls
// through to a direct regional fetch and folds the result back in, since the
// snapshot may be stale or partially loaded.
func (c *Cache) Near(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Record, error) {
	if !center.Valid() {
		return nil, domain.ErrInvalidCoordinates
	}

	c.mu.RLock()
	snapshot := c.snapshot
	c.mu.RUnlock()

	hits := c.withinRadius(snapshot, center, radiusMeters)
	if len(hits) > 0 {
		return hits, nil
	}

	metrics.CacheFallbackTotal.Inc()
	regional, err := c.registry.FetchNear(ctx, center, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("regional fetch: %w", err)
	}

	regional = c.withinRadius(regional, center, radiusMeters)
	if len(regional) > 0 {
		c.Fold(regional)
	}
	return regional, nil
}

// Fold merges records into the snapshot via the incremental merge,
// copy-and-replace.
func (c *Cache) Fold(records []domain.Record) {
	if len(records) == 0 {
		return
	}

	kept := records[:0:0]
	for _, rec := range records {
		if c.blacklist.Contains(rec.ID) {
			continue
		}
		kept = append(kept, rec)
	}

	c.mu.Lock()
	c.snapshot = c.merger.Merge(c.snapshot, kept)
	c.mu.Unlock()
}

// Len returns the snapshot size.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}

// withinRadius applies the coordinate-validity and blacklist filters plus
// the haversine radius cut.
func (c *Cache) withinRadius(records []domain.Record, center domain.Coordinates, radiusMeters float64) []domain.Record {
	var hits []domain.Record
	for _, rec := range records {
		if !rec.Coordinates.Valid() {
			continue
		}
		if c.blacklist.Contains(rec.ID) {
			continue
		}
		if geo.Distance(center, rec.Coordinates) <= radiusMeters {
			hits = append(hits, rec)
		}
	}
	return hits
}
