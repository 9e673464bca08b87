package poidex

import (
	"time"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain/match"
	"github.com/mapfold/poidex/internal/domain/score"
	searchuc "github.com/mapfold/poidex/internal/usecase/search"
)

// Option configures the client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	password string

	scoutAPIKey   string
	scoutBaseURL  string
	scoutModel    string
	maxCandidates int

	placesBaseURL   string
	placesUserAgent string

	interactive match.Interactive
	batch       match.Batch
	weights     score.Weights
	searchOpts  searchuc.Options
	deleteDelay time.Duration

	logger *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		scoutModel:    "gpt-4o-mini",
		maxCandidates: 10,

		placesBaseURL:   "https://nominatim.openstreetmap.org",
		placesUserAgent: "poidex",

		interactive:   match.DefaultInteractive(),
		batch:         match.DefaultBatch(),
		weights:       score.Default(),
		searchOpts:    searchuc.DefaultOptions(),
		deleteDelay:   250 * time.Millisecond,
		logger:        zap.NewNop(),
	}
}

// WithRedis sets the Redis address and password.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithScout enables the generative lookup with the given API key. An empty
// model keeps the default.
func WithScout(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.scoutAPIKey = apiKey
		if model != "" {
			c.scoutModel = model
		}
	}
}

// WithScoutBaseURL points the generative lookup at a compatible endpoint.
func WithScoutBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.scoutBaseURL = baseURL
	}
}

// WithPlaces sets the place directory / geocoding endpoint.
func WithPlaces(baseURL, userAgent string) Option {
	return func(c *clientConfig) {
		c.placesBaseURL = baseURL
		c.placesUserAgent = userAgent
	}
}

// WithMatching overrides the interactive duplicate-matching thresholds.
func WithMatching(minSimilarity, maxDistanceMeters float64) Option {
	return func(c *clientConfig) {
		c.interactive = match.Interactive{
			MinSimilarity:     minSimilarity,
			MaxDistanceMeters: maxDistanceMeters,
		}
	}
}

// WithSearchTuning overrides the orchestrator thresholds. Zero values keep
// the defaults.
func WithSearchTuning(minResults int, acceptRadiusMeters, defaultRadiusMeters float64) Option {
	return func(c *clientConfig) {
		if minResults > 0 {
			c.searchOpts.MinResults = minResults
		}
		if acceptRadiusMeters > 0 {
			c.searchOpts.AcceptRadiusMeters = acceptRadiusMeters
		}
		if defaultRadiusMeters > 0 {
			c.searchOpts.DefaultRadiusMeters = defaultRadiusMeters
		}
	}
}

// WithDeleteDelay sets the politeness throttle between reconcile deletions.
func WithDeleteDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		c.deleteDelay = d
	}
}

// WithLogger attaches a zap logger. The default discards all output.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
