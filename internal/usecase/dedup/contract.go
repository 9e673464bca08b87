package dedup

import (
	"context"

	"github.com/mapfold/poidex/internal/domain"
)

// Deleter removes rows from the persistent registry.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Updater writes survivor enrichment back to the registry.
type Updater interface {
	Update(ctx context.Context, rec domain.Record) error
}

// BlacklistWriter records identifiers excluded from all future reads.
type BlacklistWriter interface {
	Add(ctx context.Context, id string) error
}
