package health

import "context"

// DBPinger checks registry availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ScoutChecker checks generative lookup availability.
type ScoutChecker interface {
	HealthCheck(ctx context.Context) error
}
