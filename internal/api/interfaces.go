package api

import (
	"context"

	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/route"
	"github.com/neexbeast/saferoute/internal/safety"
)

// RoutePlanner defines the route operations needed by handlers.
type RoutePlanner interface {
	CalculateSafeRoute(ctx context.Context, req safety.RouteRequest) (*safety.RouteResponse, error)
	RouteHistory(ctx context.Context, requesterID string, days int) ([]route.Record, error)
}

// HazardAnalyzer defines the hazard operations needed by handlers.
type HazardAnalyzer interface {
	AnalyzeLocation(ctx context.Context, req safety.AreaRequest) (*safety.AreaReport, error)
	History(ctx context.Context, req safety.HistoryRequest) ([]hazard.Record, error)
}
