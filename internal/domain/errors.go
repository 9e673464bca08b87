package domain

import "errors"

var (
	// ErrNotFound signals a missing record (lookup by name or id).
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinates signals an unusable coordinate pair.
	// Records carrying it are filtered silently, never surfaced.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrRateLimited signals a quota or rate-limit condition from the
	// generative lookup. The orchestrator degrades instead of failing.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable signals a transient registry failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
