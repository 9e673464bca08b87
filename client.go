package poidex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mapfold/poidex/internal/db"
	dbRedis "github.com/mapfold/poidex/internal/db/redis"
	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/metrics"
	blacklistrepo "github.com/mapfold/poidex/internal/repository/blacklist"
	recordrepo "github.com/mapfold/poidex/internal/repository/record"
	"github.com/mapfold/poidex/internal/transport/places"
	"github.com/mapfold/poidex/internal/transport/scout"
	cacheuc "github.com/mapfold/poidex/internal/usecase/cache"
	dedupuc "github.com/mapfold/poidex/internal/usecase/dedup"
	enrichuc "github.com/mapfold/poidex/internal/usecase/enrich"
	searchuc "github.com/mapfold/poidex/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultEnrichBatchSize  = 20
)

// The service binary registers these at startup; an embedded client may be
// constructed more than once in one process.
var registerMetricsOnce sync.Once

// Client is the poidex SDK entry point.
type Client struct {
	store        db.Store
	snapshot     *cacheuc.Cache
	orchestrator *searchuc.Orchestrator
	reconciler   *dedupuc.Service
}

// New creates a poidex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("poidex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("poidex: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("poidex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	registerMetricsOnce.Do(metrics.RegisterSearchMetrics)

	registry := recordrepo.New(store)
	if err := registry.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("poidex: ensure record index: %w", err)
	}

	blacklist := blacklistrepo.New(store)
	if err := blacklist.Load(ctx); err != nil {
		return nil, fmt.Errorf("poidex: load blacklist: %w", err)
	}

	engine := dedupuc.New(
		cfg.interactive, cfg.batch, cfg.weights,
		registry, registry, blacklist,
		cfg.deleteDelay, cfg.logger,
	)

	snapshot := cacheuc.New(registry, blacklist, engine, cfg.logger)
	if err := snapshot.Load(ctx); err != nil {
		// A cold cache degrades to per-request regional fetches.
		cfg.logger.Warn("poidex: snapshot load failed, starting cold")
	}

	scoutClient := scout.NewClient(&scout.Config{
		APIKey:        cfg.scoutAPIKey,
		BaseURL:       cfg.scoutBaseURL,
		Model:         cfg.scoutModel,
		MaxCandidates: cfg.maxCandidates,
		Logger:        cfg.logger,
	})

	placesClient := places.NewClient(&places.Config{
		BaseURL:   cfg.placesBaseURL,
		UserAgent: cfg.placesUserAgent,
		Logger:    cfg.logger,
	})

	enricher := enrichuc.New(placesClient, registry, defaultEnrichBatchSize, cfg.logger)

	orchestrator := searchuc.New(
		snapshot, scoutClient, registry, engine, enricher, placesClient,
		cfg.searchOpts, cfg.logger,
	)

	return &Client{
		store:        store,
		snapshot:     snapshot,
		orchestrator: orchestrator,
		reconciler:   dedupuc.NewService(engine, registry, blacklist, cfg.logger),
	}, nil
}

// Close joins background persistence goroutines and releases the connection.
func (c *Client) Close() {
	if c.orchestrator != nil {
		c.orchestrator.Wait()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search starts a fluent search query.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{client: c}
}

// AddPlace stores a hand-entered place and merges it into the cache.
// Name and valid coordinates are required.
func (c *Client) AddPlace(ctx context.Context, p Place) (Place, error) {
	created, err := c.orchestrator.AddManual(ctx, fromPlace(p))
	if err != nil {
		return Place{}, fmt.Errorf("add place: %w", err)
	}
	return toPlace(created), nil
}

// Reconcile runs whole-registry batch deduplication. With dryRun the
// would-be deletions are reported without touching the registry.
func (c *Client) Reconcile(ctx context.Context, dryRun bool) (ReconcileOutcome, error) {
	out, err := c.reconciler.Run(ctx, dryRun)
	if err != nil {
		return ReconcileOutcome{}, fmt.Errorf("reconcile: %w", err)
	}
	return ReconcileOutcome{
		Kept:       out.Kept,
		Groups:     out.Groups,
		DeletedIDs: out.DeletedIDs,
		ErrCount:   out.ErrCount,
		DryRun:     out.DryRun,
	}, nil
}

// CacheSize returns the number of records in the spatial snapshot.
func (c *Client) CacheSize() int {
	return c.snapshot.Len()
}

// searchResult converts the orchestrator result to the SDK view.
func searchResult(res searchuc.Result) SearchResult {
	return SearchResult{
		Places:      toPlaces(res.Records),
		Narrative:   res.Narrative,
		StoreCount:  res.StoreCount,
		NewCount:    res.NewCount,
		Expanded:    res.Expanded,
		RateLimited: res.RateLimited,
	}
}

// anchor builds coordinates for the builder.
func anchor(lat, lng float64) domain.Coordinates {
	return domain.Coordinates{Lat: lat, Lng: lng}
}
