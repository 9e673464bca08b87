// Package dedup groups and merges likely-duplicate records: incrementally
// during a live search, and in batch against the whole registry.
package dedup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/match"
	"github.com/mapfold/poidex/internal/domain/score"
	"github.com/mapfold/poidex/internal/metrics"
)

// Engine resolves duplicate records under the interactive and batch
// matching policies.
type Engine struct {
	interactive match.Interactive
	batch       match.Batch
	weights     score.Weights

	deleter   Deleter
	updater   Updater
	blacklist BlacklistWriter
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// New creates an engine. deleter, updater, and blacklist are only exercised
// by Reconcile; an engine used solely for incremental merges may pass nil.
func New(
	interactive match.Interactive, batch match.Batch, weights score.Weights,
	deleter Deleter, updater Updater, blacklist BlacklistWriter,
	deleteDelay time.Duration, logger *zap.Logger,
) *Engine {
	limit := rate.Inf
	if deleteDelay > 0 {
		limit = rate.Every(deleteDelay)
	}
	return &Engine{
		interactive: interactive,
		batch:       batch,
		weights:     weights,
		deleter:     deleter,
		updater:     updater,
		blacklist:   blacklist,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// Merge folds incoming records into existing ones. Exact-ID collisions and
// interactive-policy collisions resolve by field overlay into the existing
// slot (the slot's ID is retained); everything else appends. The input
// slices are not mutated; relative order of existing records is preserved.
func (e *Engine) Merge(existing, incoming []domain.Record) []domain.Record {
	out := make([]domain.Record, len(existing))
	copy(out, existing)

	byID := make(map[string]int, len(out))
	for i := range out {
		byID[out[i].ID] = i
	}

	for i := range incoming {
		inc := incoming[i]

		if slot, ok := byID[inc.ID]; ok {
			out[slot] = e.resolve(&out[slot], &inc)
			continue
		}

		if slot := e.findPartner(out, &inc); slot >= 0 {
			out[slot] = e.resolve(&out[slot], &inc)
			continue
		}

		out = append(out, inc)
		byID[inc.ID] = len(out) - 1
	}

	return out
}

// findPartner scans for the first interactive-policy match.
func (e *Engine) findPartner(records []domain.Record, inc *domain.Record) int {
	for i := range records {
		if e.interactive.Matches(&records[i], inc) {
			return i
		}
	}
	return -1
}

// resolve overlays a duplicate pair: the higher-scored record becomes the
// base, and the slot record's ID is retained regardless of which side won.
func (e *Engine) resolve(slot, inc *domain.Record) domain.Record {
	base, donor := slot, inc
	if e.weights.Score(inc) > e.weights.Score(slot) {
		base, donor = inc, slot
	}
	merged := overlay(base, donor)
	merged.ID = slot.ID
	return merged
}

// Outcome summarizes one batch reconciliation run for the operator.
type Outcome struct {
	Kept       int
	Groups     int
	DeletedIDs []string
	ErrCount   int
	DryRun     bool
}

// Reconcile runs whole-registry dedup over the given records. Groups form by
// first-match against the group seed (not transitive closure) under the batch
// policy; within each group the highest-scored member survives, enriched by
// field overlay from the losers, and the rest are deleted from the registry
// and blacklisted. Deletions are serialized through the politeness throttle;
// individual failures are logged and counted, never fatal.
func (e *Engine) Reconcile(ctx context.Context, all []domain.Record, dryRun bool) (Outcome, error) {
	out := Outcome{DryRun: dryRun}
	processed := make([]bool, len(all))

	for i := range all {
		if processed[i] {
			continue
		}
		processed[i] = true
		out.Kept++

		group := []int{i}
		for j := i + 1; j < len(all); j++ {
			if processed[j] {
				continue
			}
			if e.batch.Matches(&all[i], &all[j]) {
				processed[j] = true
				group = append(group, j)
			}
		}
		if len(group) == 1 {
			continue
		}
		out.Groups++

		if err := e.collapseGroup(ctx, all, group, dryRun, &out); err != nil {
			return out, err
		}
	}

	return out, nil
}

// collapseGroup picks the survivor, persists its overlay enrichment, and
// deletes the losers.
func (e *Engine) collapseGroup(
	ctx context.Context, all []domain.Record, group []int, dryRun bool, out *Outcome,
) error {
	best := group[0]
	for _, g := range group[1:] {
		if e.weights.Score(&all[g]) > e.weights.Score(&all[best]) {
			best = g
		}
	}

	survivor := all[best]
	for _, g := range group {
		if g != best {
			survivor = overlay(&survivor, &all[g])
		}
	}
	survivor.ID = all[best].ID

	if dryRun {
		for _, g := range group {
			if g != best {
				out.DeletedIDs = append(out.DeletedIDs, all[g].ID)
			}
		}
		return nil
	}

	if survivor != all[best] {
		if err := e.updater.Update(ctx, survivor); err != nil {
			e.logger.Warn("survivor enrichment not persisted",
				zap.String("id", survivor.ID), zap.Error(err))
			out.ErrCount++
		}
	}

	for _, g := range group {
		if g == best {
			continue
		}
		if err := e.deleteOne(ctx, all[g].ID, out); err != nil {
			return err
		}
	}
	return nil
}

// deleteOne removes one loser behind the throttle. Only a cancelled context
// aborts the run; store failures are counted and skipped.
func (e *Engine) deleteOne(ctx context.Context, id string, out *Outcome) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("reconcile aborted: %w", err)
	}

	if err := e.deleter.Delete(ctx, id); err != nil {
		e.logger.Warn("duplicate not deleted", zap.String("id", id), zap.Error(err))
		metrics.ReconcileErrorsTotal.Inc()
		out.ErrCount++
		return nil
	}

	out.DeletedIDs = append(out.DeletedIDs, id)
	metrics.ReconcileDeletedTotal.Inc()

	if err := e.blacklist.Add(ctx, id); err != nil {
		e.logger.Warn("deleted id not blacklisted", zap.String("id", id), zap.Error(err))
		out.ErrCount++
	}
	return nil
}
