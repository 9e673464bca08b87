package search

import (
	"context"

	"github.com/mapfold/poidex/internal/domain"
)

// Cache is the spatial mirror of the registry.
type Cache interface {
	Near(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Record, error)
	Fold(records []domain.Record)
}

// Scout proposes candidate points of interest near an anchor. A rate-limit
// or quota condition surfaces as domain.ErrRateLimited.
type Scout interface {
	Propose(ctx context.Context, query string, anchor domain.Coordinates) ([]domain.Record, error)
}

// Registry is the persistent-store surface the orchestrator needs for
// background persistence and manual entry.
type Registry interface {
	FetchByName(ctx context.Context, name string) (domain.Record, error)
	Create(ctx context.Context, rec domain.Record) (domain.Record, error)
}

// Merger is the incremental deduplication merge.
type Merger interface {
	Merge(existing, incoming []domain.Record) []domain.Record
}

// Enricher backfills place details in the background.
type Enricher interface {
	Enrich(ctx context.Context, records []domain.Record) int
}

// Geocoder resolves free text to coordinates.
// A miss surfaces as domain.ErrNotFound.
type Geocoder interface {
	Resolve(ctx context.Context, freeText string) (domain.Coordinates, error)
}
