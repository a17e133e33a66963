package safety

import (
	"context"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
)

// RouteRequest asks for a walking route between two points.
type RouteRequest struct {
	From        geo.Point
	To          geo.Point
	Preference  string
	RequesterID string // empty for anonymous callers
}

func (r RouteRequest) preference() string {
	if r.Preference == "" {
		return PreferenceSafe
	}
	return r.Preference
}

// RouteResponse is the answer to a RouteRequest.
type RouteResponse struct {
	RouteID         string           `json:"route_id"`
	Path            []geo.Point      `json:"path"`
	DistanceMeters  float64          `json:"distance_meters"`
	DurationSeconds int              `json:"duration_seconds"`
	RiskScore       int              `json:"risk_score"`
	Hotspots        []hazard.Hotspot `json:"hotspots"`
	Recommendation  string           `json:"recommendation"`
	Cached          bool             `json:"cached"`
	CreatedAt       time.Time        `json:"created_at"`
}

func newRouteResponse(rec route.Record, cached bool) *RouteResponse {
	hotspots := rec.Hotspots
	if hotspots == nil {
		hotspots = []hazard.Hotspot{}
	}
	return &RouteResponse{
		RouteID:         rec.ID,
		Path:            rec.Path,
		DistanceMeters:  rec.DistanceMeters,
		DurationSeconds: rec.DurationSeconds,
		RiskScore:       rec.RiskScore,
		Hotspots:        hotspots,
		Recommendation:  Recommendation(rec.RiskScore),
		Cached:          cached,
		CreatedAt:       rec.CreatedAt,
	}
}

// AreaRequest asks for the current hazard picture around a point.
type AreaRequest struct {
	Lat         float64
	Lon         float64
	RadiusKm    float64
	RequesterID string
}

// AreaReport summarises hazards near a point.
type AreaReport struct {
	Location  geo.Point        `json:"location"`
	Hazards   []hazard.Summary `json:"hazard_summary"`
	Timestamp time.Time        `json:"timestamp"`
	Warning   string           `json:"warning,omitempty"`
}

// HistoryRequest asks for stored hazards near a point over the last Days days.
type HistoryRequest struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
	Days     int
}

// HazardStore persists hazard records.
type HazardStore interface {
	SaveHazards(ctx context.Context, records []hazard.Record) error
	FindHazardsWithinBounds(ctx context.Context, b geo.Bounds, since time.Time) ([]hazard.Record, error)
	FindHistoricalHazards(ctx context.Context, b geo.Bounds, start, end time.Time) ([]hazard.Record, error)
}

// RouteStore persists computed routes.
type RouteStore interface {
	SaveRoute(ctx context.Context, rec route.Record) error
	FindRecentRoute(ctx context.Context, fp route.Fingerprint, since time.Time) (*route.Record, error)
	FindRoutesForRequester(ctx context.Context, requesterID string, since time.Time) ([]route.Record, error)
	FindAllRoutes(ctx context.Context, since time.Time) ([]route.Record, error)
}

// RouteCache is a fast front for RouteStore lookups.
type RouteCache interface {
	Get(ctx context.Context, fp route.Fingerprint) (*route.Record, error)
	Set(ctx context.Context, rec route.Record, now time.Time) error
}

// WeatherFetcher returns current conditions at a coordinate.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (*hazard.Snapshot, error)
}

// Notifier announces severe hazards and new routes.
type Notifier interface {
	PublishHazardAlerts(ctx context.Context, userID string, at geo.Point, summaries []hazard.Summary, now time.Time) (int, error)
	PublishRouteUpdate(ctx context.Context, rec route.Record) error
}
