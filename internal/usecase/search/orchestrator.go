// Package search coordinates the registry cache and the generative scout,
// merges their outputs, and narrates the result.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/geo"
	"github.com/mapfold/poidex/internal/logger"
	"github.com/mapfold/poidex/internal/metrics"
)

// Options are the orchestrator's tunable thresholds.
type Options struct {
	// MinResults gates the scout: below this many registry hits, the
	// search expands to the generative source.
	MinResults int
	// AcceptRadiusMeters rejects scout proposals farther than this from
	// the anchor before they reach the merge.
	AcceptRadiusMeters float64
	// DefaultRadiusMeters is used when a request carries no radius.
	DefaultRadiusMeters float64
}

// DefaultOptions returns the tuned production thresholds.
func DefaultOptions() Options {
	return Options{
		MinResults:          5,
		AcceptRadiusMeters:  50_000,
		DefaultRadiusMeters: 2_000,
	}
}

// Result is one narrated search outcome.
type Result struct {
	Records []domain.Record
	// Narrative summarizes counts and sources for display.
	Narrative string
	// StoreCount is how many records came from the registry.
	StoreCount int
	// Expanded reports whether the scout was consulted.
	Expanded bool
	// NewCount is how many net-new records the scout contributed.
	NewCount int
	// RateLimited reports scout quota exhaustion; records then come from
	// the registry only and the caller can render a distinct message.
	RateLimited bool
}

// Orchestrator runs the search pipeline.
type Orchestrator struct {
	cache    Cache
	scout    Scout
	registry Registry
	merger   Merger
	enricher Enricher
	geocoder Geocoder
	opts     Options
	logger   *zap.Logger

	// background tracks detached persistence/enrichment goroutines so
	// tests and shutdown can join them.
	background sync.WaitGroup
}

// New creates an orchestrator.
func New(
	cache Cache, scout Scout, registry Registry, merger Merger,
	enricher Enricher, geocoder Geocoder, opts Options, log *zap.Logger,
) *Orchestrator {
	if opts.MinResults <= 0 {
		opts.MinResults = DefaultOptions().MinResults
	}
	if opts.AcceptRadiusMeters <= 0 {
		opts.AcceptRadiusMeters = DefaultOptions().AcceptRadiusMeters
	}
	if opts.DefaultRadiusMeters <= 0 {
		opts.DefaultRadiusMeters = DefaultOptions().DefaultRadiusMeters
	}
	return &Orchestrator{
		cache:    cache,
		scout:    scout,
		registry: registry,
		merger:   merger,
		enricher: enricher,
		geocoder: geocoder,
		opts:     opts,
		logger:   log,
	}
}

// Search runs a radius search around an anchor coordinate.
func (o *Orchestrator) Search(ctx context.Context, anchor domain.Coordinates, radiusMeters float64) (Result, error) {
	return o.run(ctx, anchor, radiusMeters, "points of interest")
}

// SearchByQuery geocodes free text to an anchor first, then searches around
// it; the text also steers the scout. A geocoding miss surfaces as
// domain.ErrNotFound.
func (o *Orchestrator) SearchByQuery(ctx context.Context, freeText string, radiusMeters float64) (Result, error) {
	anchor, err := o.geocoder.Resolve(ctx, freeText)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{}, fmt.Errorf("geocode %q: %w", freeText, domain.ErrNotFound)
		}
		return Result{}, fmt.Errorf("geocode %q: %w", freeText, err)
	}
	return o.run(ctx, anchor, radiusMeters, freeText)
}

func (o *Orchestrator) run(ctx context.Context, anchor domain.Coordinates, radiusMeters float64, query string) (Result, error) {
	if !anchor.Valid() {
		return Result{}, domain.ErrInvalidCoordinates
	}
	if radiusMeters <= 0 {
		radiusMeters = o.opts.DefaultRadiusMeters
	}

	stored, err := o.cache.Near(ctx, anchor, radiusMeters)
	if err != nil {
		return Result{}, fmt.Errorf("registry search: %w", err)
	}
	metrics.SearchesTotal.WithLabelValues("store").Inc()

	// The cache owns the slice it handed out; the result gets a copy so the
	// prioritized sort below cannot reorder the cached snapshot.
	res := Result{Records: slices.Clone(stored), StoreCount: len(stored)}

	if len(stored) < o.opts.MinResults {
		o.expand(ctx, anchor, query, stored, &res)
	}

	sortPrioritized(res.Records)
	res.Narrative = narrative(&res)

	// Side effects detach from the request: neither persistence of new
	// discoveries nor enrichment may delay or fail the returned result.
	o.spawn(ctx, func(bg context.Context) { o.enricher.Enrich(bg, res.Records) })

	return res, nil
}

// expand consults the scout and merges accepted proposals. Scout failure
// degrades to registry-only results; only rate limiting is tagged for the
// caller.
func (o *Orchestrator) expand(ctx context.Context, anchor domain.Coordinates, query string, stored []domain.Record, res *Result) {
	log := logger.FromContext(ctx)

	proposed, err := o.scout.Propose(ctx, query, anchor)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			res.RateLimited = true
			metrics.ScoutRateLimitedTotal.Inc()
			log.Warn("scout rate limited, serving registry results only")
			return
		}
		log.Warn("scout lookup failed", zap.Error(err))
		return
	}
	res.Expanded = true
	metrics.SearchesTotal.WithLabelValues("scout").Inc()

	accepted := proposed[:0:0]
	for _, rec := range proposed {
		if !rec.Coordinates.Valid() {
			continue
		}
		if geo.Distance(anchor, rec.Coordinates) > o.opts.AcceptRadiusMeters {
			log.Debug("scout proposal outside acceptance radius",
				zap.String("name", rec.Name))
			continue
		}
		accepted = append(accepted, rec)
	}

	merged := o.merger.Merge(stored, accepted)
	res.NewCount = len(merged) - len(stored)
	res.Records = merged

	if len(accepted) > 0 {
		o.spawn(ctx, func(bg context.Context) { o.persistDiscoveries(bg, accepted) })
	}
}

// persistDiscoveries writes net-new scout records to the registry, checked
// for existence by name. Failures are logged per record and stay invisible
// to the caller.
func (o *Orchestrator) persistDiscoveries(ctx context.Context, discoveries []domain.Record) {
	var created []domain.Record
	for _, rec := range discoveries {
		_, err := o.registry.FetchByName(ctx, rec.Name)
		switch {
		case err == nil:
			continue // already known
		case !errors.Is(err, domain.ErrNotFound):
			o.logger.Warn("existence check failed",
				zap.String("name", rec.Name), zap.Error(err))
			continue
		}

		stored, err := o.registry.Create(ctx, rec)
		if err != nil {
			o.logger.Warn("discovery not persisted",
				zap.String("name", rec.Name), zap.Error(err))
			continue
		}
		created = append(created, stored)
	}

	if len(created) > 0 {
		o.cache.Fold(created)
		o.logger.Info("persisted scout discoveries", zap.Int("count", len(created)))
	}
}

// AddManual stores a hand-entered record and folds it into the cache.
func (o *Orchestrator) AddManual(ctx context.Context, rec domain.Record) (domain.Record, error) {
	if rec.Name == "" {
		return domain.Record{}, fmt.Errorf("name is required")
	}
	if !rec.Coordinates.Valid() {
		return domain.Record{}, domain.ErrInvalidCoordinates
	}
	rec.Provenance = domain.ProvenanceManual

	stored, err := o.registry.Create(ctx, rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("create manual record: %w", err)
	}
	o.cache.Fold([]domain.Record{stored})
	return stored, nil
}

// Wait joins all detached background work. Used by tests and shutdown.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// spawn runs fn detached from the request's cancellation but joined on Wait.
func (o *Orchestrator) spawn(ctx context.Context, fn func(context.Context)) {
	bg := context.WithoutCancel(ctx)
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		fn(bg)
	}()
}

// sortPrioritized stable-sorts prioritized records first, preserving
// relative order otherwise.
func sortPrioritized(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Prioritized && !records[j].Prioritized
	})
}

// narrative builds the operator-facing summary line.
func narrative(res *Result) string {
	s := strconv.Itoa(res.StoreCount) + " places from the registry"
	switch {
	case res.RateLimited:
		s += "; suggestions are rate limited right now, showing registry places only"
	case res.Expanded && res.NewCount > 0:
		s += "; expanded the search and found " + strconv.Itoa(res.NewCount) + " new suggestions"
	case res.Expanded:
		s += "; expanded the search but found nothing new"
	}
	return s
}
