package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/httpjson"
)

const mapboxDefaultURL = "https://api.mapbox.com/directions/v5/mapbox/walking"

// Mapbox fetches walking directions from the Mapbox Directions API.
type Mapbox struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewMapbox constructs the provider. An empty baseURL uses the public endpoint.
func NewMapbox(baseURL, token string, timeout time.Duration) *Mapbox {
	if baseURL == "" {
		baseURL = mapboxDefaultURL
	}
	return &Mapbox{token: token, baseURL: strings.TrimSuffix(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

func (m *Mapbox) Name() string { return ProviderMapbox }

type mapboxResponse struct {
	Routes []struct {
		Geometry lineString `json:"geometry"`
	} `json:"routes"`
}

// FetchPath requests a walking route from `from` to `to`.
func (m *Mapbox) FetchPath(ctx context.Context, from, to geo.Point) ([]geo.Point, error) {
	// Mapbox uses lon,lat order.
	u := fmt.Sprintf("%s/%s;%s", m.baseURL, lonLat(from), lonLat(to))
	params := url.Values{
		"geometries":   {"geojson"},
		"access_token": {m.token},
	}

	var raw mapboxResponse
	if err := httpjson.Get(ctx, m.client, u+"?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("mapbox directions: %w", err)
	}
	if len(raw.Routes) == 0 {
		return nil, fmt.Errorf("mapbox directions: %w", ErrNoRoute)
	}

	path, err := raw.Routes[0].Geometry.toPath()
	if err != nil {
		return nil, fmt.Errorf("mapbox geometry: %w", err)
	}
	return path, nil
}
