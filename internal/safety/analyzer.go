package safety

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/weather"
)

// Analyzer detects hazards from live weather and summarises stored ones.
type Analyzer struct {
	deps Deps
}

// NewAnalyzer constructs an Analyzer. A nil Weather fetcher always yields the
// neutral snapshot.
func NewAnalyzer(deps Deps) *Analyzer {
	return &Analyzer{deps: deps.withDefaults()}
}

// AnalyzeLocation fetches current weather and recent stored hazards
// concurrently, persists newly detected hazards and summarises both sets.
// Weather failures degrade to neutral conditions; store failures are returned.
func (a *Analyzer) AnalyzeLocation(ctx context.Context, req AreaRequest) (*AreaReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := a.deps.Clock.Now().UTC()
	log := a.deps.Log.With("lat", req.Lat, "lon", req.Lon, "radius_km", req.RadiusKm, "requester", req.RequesterID)
	box := geo.BoundingBox(req.Lat, req.Lon, req.RadiusKm)

	var (
		snap   hazard.Snapshot
		stored []hazard.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap = a.currentWeather(gctx, log, req.Lat, req.Lon)
		return nil
	})
	g.Go(func() error {
		var err error
		stored, err = a.deps.Hazards.FindHazardsWithinBounds(gctx, box, now.Add(-RecencyWindow))
		if err != nil {
			return fmt.Errorf("querying recent hazards: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detected := hazard.Detect(req.Lat, req.Lon, snap, weather.Source, now)
	if err := a.deps.Hazards.SaveHazards(ctx, detected); err != nil {
		return nil, fmt.Errorf("saving detected hazards: %w", err)
	}
	for _, h := range detected {
		a.deps.Metrics.HazardsDetected.WithLabelValues(string(h.Type)).Inc()
	}

	all := make([]hazard.Record, 0, len(stored)+len(detected))
	all = append(all, stored...)
	all = append(all, detected...)

	summaries := hazard.Summarize(all)
	report := &AreaReport{
		Location:  geo.Point{Lat: req.Lat, Lon: req.Lon},
		Hazards:   summaries,
		Timestamp: now,
		Warning:   hazard.Warning(summaries),
	}

	if a.deps.Notifier != nil && req.RequesterID != "" {
		sent, err := a.deps.Notifier.PublishHazardAlerts(ctx, req.RequesterID, report.Location, summaries, now)
		if err != nil {
			log.Warn("hazard alert publish failed", "sent", sent, "err", err)
		}
	}

	log.Info("location analysed", "stored", len(stored), "detected", len(detected), "summaries", len(summaries))
	return report, nil
}

func (a *Analyzer) currentWeather(ctx context.Context, log *slog.Logger, lat, lon float64) hazard.Snapshot {
	if a.deps.Weather == nil {
		a.deps.Metrics.WeatherFallbacks.Inc()
		return weather.NeutralSnapshot()
	}

	start := a.deps.Clock.Now()
	snap, err := a.deps.Weather.Fetch(ctx, lat, lon)
	a.deps.Metrics.ProviderDuration.WithLabelValues(weather.Source).Observe(a.deps.Clock.Since(start).Seconds())
	if err != nil || snap == nil {
		a.deps.Metrics.WeatherFallbacks.Inc()
		log.Warn("weather fetch failed, using neutral conditions", "err", err)
		return weather.NeutralSnapshot()
	}
	return *snap
}

// History returns stored hazards around a point over the last req.Days days,
// newest first.
func (a *Analyzer) History(ctx context.Context, req HistoryRequest) ([]hazard.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	end := a.deps.Clock.Now().UTC()
	start := end.Add(-time.Duration(req.Days) * 24 * time.Hour)
	box := geo.BoundingBox(req.Lat, req.Lon, req.RadiusKm)

	records, err := a.deps.Hazards.FindHistoricalHazards(ctx, box, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading hazard history: %w", err)
	}
	return records, nil
}
