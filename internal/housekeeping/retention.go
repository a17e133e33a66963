// Package housekeeping removes hazard and route records past their retention.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultHazardRetention = 7 * 24 * time.Hour
	DefaultRouteRetention  = 24 * time.Hour
)

// Store is the subset of storage.Repository the retention pass needs.
type Store interface {
	DeleteHazardsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteRoutesOlderThan(ctx context.Context, requesterID string, cutoff time.Time) (int64, error)
}

// Result reports how many rows one pass removed.
type Result struct {
	HazardsDeleted int64
	RoutesDeleted  int64
}

// Retention deletes old records in a single pass.
type Retention struct {
	store  Store
	clock  clockwork.Clock
	log    *slog.Logger
	hazard time.Duration
	route  time.Duration
}

// NewRetention constructs a Retention. Non-positive durations use the defaults.
func NewRetention(store Store, clock clockwork.Clock, log *slog.Logger, hazardRetention, routeRetention time.Duration) *Retention {
	if hazardRetention <= 0 {
		hazardRetention = DefaultHazardRetention
	}
	if routeRetention <= 0 {
		routeRetention = DefaultRouteRetention
	}
	return &Retention{store: store, clock: clock, log: log, hazard: hazardRetention, route: routeRetention}
}

// Run deletes hazards and routes older than their retention. Routes are still
// pruned when the hazard deletion fails; the first error is returned.
func (r *Retention) Run(ctx context.Context) (Result, error) {
	now := r.clock.Now().UTC()
	var res Result
	var firstErr error

	n, err := r.store.DeleteHazardsOlderThan(ctx, now.Add(-r.hazard))
	if err != nil {
		firstErr = fmt.Errorf("pruning hazards: %w", err)
		r.log.Error("hazard retention failed", "err", err)
	} else {
		res.HazardsDeleted = n
	}

	n, err = r.store.DeleteRoutesOlderThan(ctx, "", now.Add(-r.route))
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("pruning routes: %w", err)
		}
		r.log.Error("route retention failed", "err", err)
	} else {
		res.RoutesDeleted = n
	}

	r.log.Info("retention pass complete",
		"hazards_deleted", res.HazardsDeleted,
		"routes_deleted", res.RoutesDeleted,
	)
	return res, firstErr
}
