package routing

import (
	"context"

	"github.com/neexbeast/saferoute/internal/geo"
)

// DirectSegments is the number of equal segments in a fallback path.
const DirectSegments = 10

// DirectPath interpolates a straight line between the endpoints. It never fails.
type DirectPath struct{}

func (DirectPath) Name() string { return ProviderDirect }

// FetchPath returns DirectSegments+1 points from origin to destination.
func (DirectPath) FetchPath(_ context.Context, from, to geo.Point) ([]geo.Point, error) {
	return Straight(from, to), nil
}

// Straight is the pure form of DirectPath.FetchPath.
func Straight(from, to geo.Point) []geo.Point {
	return geo.Interpolate(from, to, DirectSegments)
}
