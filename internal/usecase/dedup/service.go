package dedup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

// PageFetcher loads the registry page by page.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]domain.Record, int, error)
}

// Excluder filters previously blacklisted identifiers out of the run.
type Excluder interface {
	Contains(id string) bool
}

// Service exposes batch reconciliation as an explicit maintenance operation.
type Service struct {
	engine    *Engine
	registry  PageFetcher
	blacklist Excluder
	pageSize  int
	logger    *zap.Logger
}

// NewService creates a maintenance service.
func NewService(engine *Engine, registry PageFetcher, blacklist Excluder, logger *zap.Logger) *Service {
	return &Service{
		engine:    engine,
		registry:  registry,
		blacklist: blacklist,
		pageSize:  200,
		logger:    logger,
	}
}

// Run loads the full registry and reconciles it. dryRun reports would-be
// deletions without touching the store.
func (s *Service) Run(ctx context.Context, dryRun bool) (Outcome, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return Outcome{}, err
	}

	out, err := s.engine.Reconcile(ctx, all, dryRun)
	if err != nil {
		return out, err
	}

	s.logger.Info("reconcile finished",
		zap.Int("scanned", len(all)),
		zap.Int("kept", out.Kept),
		zap.Int("groups", out.Groups),
		zap.Int("deleted", len(out.DeletedIDs)),
		zap.Int("errors", out.ErrCount),
		zap.Bool("dry_run", dryRun),
	)
	return out, nil
}

func (s *Service) loadAll(ctx context.Context) ([]domain.Record, error) {
	var all []domain.Record
	offset := 0
	for offset >= 0 {
		page, next, err := s.registry.FetchPage(ctx, offset, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		for _, rec := range page {
			if s.blacklist.Contains(rec.ID) {
				continue
			}
			all = append(all, rec)
		}
		offset = next
	}
	return all, nil
}
