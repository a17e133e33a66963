package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenRouteService = "openrouteservice"
	ProviderMapbox           = "mapbox"
	ProviderDirect           = "direct"
)

const defaultTimeout = 5 * time.Second

// ErrNoRoute is returned when a provider answers successfully but with no usable path.
var ErrNoRoute = errors.New("no route found")

// Provider computes a foot-travel path between two points.
type Provider interface {
	Name() string
	FetchPath(ctx context.Context, from, to geo.Point) ([]geo.Point, error)
}

// NewProvider selects a provider by name. An empty apiKey or the "direct" name
// yields DirectPath, since every external provider needs a key.
func NewProvider(name, apiKey, baseURL string, timeout time.Duration) (Provider, error) {
	if name == ProviderDirect || apiKey == "" {
		return DirectPath{}, nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	switch name {
	case ProviderOpenRouteService:
		return NewOpenRouteService(baseURL, apiKey, timeout), nil
	case ProviderMapbox:
		return NewMapbox(baseURL, apiKey, timeout), nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", name)
	}
}

// ValidName reports whether name is a provider NewProvider understands.
func ValidName(name string) bool {
	switch name {
	case ProviderOpenRouteService, ProviderMapbox, ProviderDirect:
		return true
	}
	return false
}

// lineString is the GeoJSON geometry shared by both external providers.
type lineString struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// toPath converts GeoJSON [lon, lat] pairs into points.
func (g lineString) toPath() ([]geo.Point, error) {
	if len(g.Coordinates) == 0 {
		return nil, ErrNoRoute
	}
	path := make([]geo.Point, 0, len(g.Coordinates))
	for i, c := range g.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate %d has %d components", i, len(c))
		}
		path = append(path, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return path, nil
}
