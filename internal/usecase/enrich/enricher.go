// Package enrich backfills image and canonical map URLs from the place
// directory for records that carry an external reference.
package enrich

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/metrics"
)

// DefaultBatchSize bounds how many place-details calls one Enrich pass may
// issue, respecting the directory's API limits.
const DefaultBatchSize = 20

// defaultConcurrency bounds the fan-out within one batch.
const defaultConcurrency = 5

// Directory is the place-details collaborator.
type Directory interface {
	DetailsFor(ctx context.Context, externalRef string) (domain.PlaceDetails, error)
}

// Patcher persists enrichment results.
type Patcher interface {
	SetEnrichment(ctx context.Context, id, imageURL, mapURL string) error
}

// Enricher runs bounded enrichment passes. Failures are logged per record
// and never surface to the caller; a failed record is simply left unchanged.
type Enricher struct {
	directory Directory
	registry  Patcher
	batchSize int
	logger    *zap.Logger
}

// New creates an enricher.
func New(directory Directory, registry Patcher, batchSize int, logger *zap.Logger) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Enricher{
		directory: directory,
		registry:  registry,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Enrich looks up details for records that have an external reference but no
// image yet, up to the batch limit, fanning out concurrently and joining all
// before persisting. Returns the number of records enriched.
func (e *Enricher) Enrich(ctx context.Context, records []domain.Record) int {
	var candidates []domain.Record
	for _, rec := range records {
		if rec.ExternalRef == "" || rec.ImageURL != "" {
			continue
		}
		// Only registry rows can take a persisted patch.
		if !rec.FromStore() {
			continue
		}
		candidates = append(candidates, rec)
		if len(candidates) == e.batchSize {
			break
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	details := make([]domain.PlaceDetails, len(candidates))
	failed := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)
	for i := range candidates {
		g.Go(func() error {
			d, err := e.directory.DetailsFor(gctx, candidates[i].ExternalRef)
			if err != nil {
				e.logger.Warn("place details lookup failed",
					zap.String("id", candidates[i].ID),
					zap.String("external_ref", candidates[i].ExternalRef),
					zap.Error(err))
				metrics.EnrichmentTotal.WithLabelValues("error").Inc()
				failed[i] = true
				return nil
			}
			details[i] = d
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	enriched := 0
	for i, rec := range candidates {
		if failed[i] || (details[i].ImageURL == "" && details[i].MapURL == "") {
			continue
		}
		if err := e.registry.SetEnrichment(ctx, rec.ID, details[i].ImageURL, details[i].MapURL); err != nil {
			e.logger.Warn("enrichment not persisted", zap.String("id", rec.ID), zap.Error(err))
			metrics.EnrichmentTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.EnrichmentTotal.WithLabelValues("ok").Inc()
		enriched++
	}
	return enriched
}
