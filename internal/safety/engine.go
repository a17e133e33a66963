package safety

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/observability"
	"github.com/neexbeast/saferoute/internal/route"
	"github.com/neexbeast/saferoute/internal/routing"
)

const (
	// CacheWindow is how long a computed route is served again to the same requester.
	CacheWindow = 10 * time.Minute
	// RecencyWindow bounds which stored hazards count as current.
	RecencyWindow = 2 * time.Hour
	// PathBuffer widens the path's bounding box for the hazard lookup (~1 km).
	PathBuffer = 0.01
)

// Deps are the collaborators shared by Engine and Analyzer. Cache, Notifier
// and Weather are optional.
type Deps struct {
	Hazards  HazardStore
	Routes   RouteStore
	Cache    RouteCache
	Provider routing.Provider
	Weather  WeatherFetcher
	Notifier Notifier
	Clock    clockwork.Clock
	Metrics  *observability.Metrics
	Log      *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Provider == nil {
		d.Provider = routing.DirectPath{}
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetricsForTesting()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return d
}

// Engine computes risk-scored walking routes.
type Engine struct {
	deps Deps
}

// NewEngine constructs an Engine.
func NewEngine(deps Deps) *Engine {
	return &Engine{deps: deps.withDefaults()}
}

// CalculateSafeRoute returns a route for req. Identified requesters are served
// a route computed within CacheWindow for the same endpoints when one exists.
// Routing, hazard lookup and cache failures degrade the answer; only
// validation and a failed persist are returned as errors.
func (e *Engine) CalculateSafeRoute(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := e.deps.Clock.Now().UTC()
	fp := route.Fingerprint{RequesterID: req.RequesterID, From: req.From, To: req.To}
	log := e.deps.Log.With("requester", req.RequesterID, "pref", req.preference())

	if req.RequesterID == "" {
		e.deps.Metrics.RouteRequests.WithLabelValues("anonymous").Inc()
	} else if rec := e.lookup(ctx, log, fp, now); rec != nil {
		e.deps.Metrics.RouteRequests.WithLabelValues("hit").Inc()
		log.Info("route served from cache", "route_id", rec.ID)
		return newRouteResponse(*rec, true), nil
	} else {
		e.deps.Metrics.RouteRequests.WithLabelValues("miss").Inc()
	}

	path := e.acquirePath(ctx, log, req.From, req.To)
	hazards := e.hazardsNear(ctx, log, path, now)

	risk := RiskScore(path, hazards)
	distance := DistanceMeters(path)
	rec := route.Record{
		ID:              uuid.NewString(),
		RequesterID:     req.RequesterID,
		From:            req.From,
		To:              req.To,
		Path:            path,
		RiskScore:       risk,
		DistanceMeters:  distance,
		DurationSeconds: DurationSeconds(distance, risk),
		Hotspots:        Hotspots(path, hazards),
		CreatedAt:       now,
	}
	e.deps.Metrics.RouteRiskScore.Observe(float64(risk))

	if err := e.deps.Routes.SaveRoute(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting route: %w", err)
	}

	if e.deps.Cache != nil && rec.RequesterID != "" {
		if err := e.deps.Cache.Set(ctx, rec, now); err != nil {
			log.Warn("route cache write failed", "err", err)
		}
	}
	if e.deps.Notifier != nil {
		if err := e.deps.Notifier.PublishRouteUpdate(ctx, rec); err != nil {
			log.Warn("route update publish failed", "route_id", rec.ID, "err", err)
		}
	}

	log.Info("route computed",
		"route_id", rec.ID,
		"risk_score", rec.RiskScore,
		"hazards", len(hazards),
		"hotspots", len(rec.Hotspots),
		"distance_m", rec.DistanceMeters,
	)
	return newRouteResponse(rec, false), nil
}

// lookup checks the front cache, then the route store. Failures count as misses.
func (e *Engine) lookup(ctx context.Context, log *slog.Logger, fp route.Fingerprint, now time.Time) *route.Record {
	since := now.Add(-CacheWindow)

	if e.deps.Cache != nil {
		rec, err := e.deps.Cache.Get(ctx, fp)
		switch {
		case err != nil:
			log.Warn("route cache read failed", "err", err)
		case rec != nil && !rec.CreatedAt.Before(since):
			return rec
		}
	}

	rec, err := e.deps.Routes.FindRecentRoute(ctx, fp, since)
	if err != nil {
		log.Warn("route store lookup failed, recomputing", "err", err)
		return nil
	}
	if rec == nil {
		return nil
	}

	if e.deps.Cache != nil {
		if err := e.deps.Cache.Set(ctx, *rec, now); err != nil {
			log.Warn("route cache write-back failed", "err", err)
		}
	}
	return rec
}

// acquirePath asks the provider for a walking path and falls back to a
// straight line on any failure.
func (e *Engine) acquirePath(ctx context.Context, log *slog.Logger, from, to geo.Point) []geo.Point {
	name := e.deps.Provider.Name()
	start := e.deps.Clock.Now()
	path, err := e.deps.Provider.FetchPath(ctx, from, to)
	e.deps.Metrics.ProviderDuration.WithLabelValues(name).Observe(e.deps.Clock.Since(start).Seconds())

	reason := ""
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		reason = "no_route"
	case err != nil:
		reason = "error"
	case len(path) < 2:
		reason = "short_path"
	}
	if reason == "" {
		return path
	}

	e.deps.Metrics.RoutingFallbacks.WithLabelValues(reason).Inc()
	log.Warn("routing provider failed, using straight line", "provider", name, "reason", reason, "err", err)
	return routing.Straight(from, to)
}

// hazardsNear returns current hazards around the path. A failed lookup yields none.
func (e *Engine) hazardsNear(ctx context.Context, log *slog.Logger, path []geo.Point, now time.Time) []hazard.Record {
	bounds := geo.PathBounds(path).Expand(PathBuffer)
	hazards, err := e.deps.Hazards.FindHazardsWithinBounds(ctx, bounds, now.Add(-RecencyWindow))
	if err != nil {
		log.Warn("hazard lookup failed, scoring without hazards", "err", err)
		return nil
	}
	return hazards
}

// RouteHistory returns routes from the last days days, newest first. An
// identified requester sees only their own routes; otherwise all routes are
// returned.
func (e *Engine) RouteHistory(ctx context.Context, requesterID string, days int) ([]route.Record, error) {
	if err := ValidateDays(days); err != nil {
		return nil, err
	}

	since := e.deps.Clock.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	if requesterID != "" {
		routes, err := e.deps.Routes.FindRoutesForRequester(ctx, requesterID, since)
		if err != nil {
			return nil, fmt.Errorf("loading route history for %s: %w", requesterID, err)
		}
		return routes, nil
	}

	routes, err := e.deps.Routes.FindAllRoutes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading route history: %w", err)
	}
	return routes, nil
}
