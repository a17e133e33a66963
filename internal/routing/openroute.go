package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/httpjson"
)

const orsDefaultURL = "https://api.openrouteservice.org/v2/directions/foot-walking"

// OpenRouteService fetches walking directions as a GeoJSON FeatureCollection.
type OpenRouteService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenRouteService constructs the provider. An empty baseURL uses the public endpoint.
func NewOpenRouteService(baseURL, apiKey string, timeout time.Duration) *OpenRouteService {
	if baseURL == "" {
		baseURL = orsDefaultURL
	}
	return &OpenRouteService{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (o *OpenRouteService) Name() string { return ProviderOpenRouteService }

type orsResponse struct {
	Features []struct {
		Geometry lineString `json:"geometry"`
	} `json:"features"`
}

// FetchPath requests a foot-walking route from `from` to `to`.
func (o *OpenRouteService) FetchPath(ctx context.Context, from, to geo.Point) ([]geo.Point, error) {
	params := url.Values{
		"start": {lonLat(from)},
		"end":   {lonLat(to)},
	}
	header := http.Header{"Authorization": {o.apiKey}}

	var raw orsResponse
	if err := httpjson.Get(ctx, o.client, o.baseURL+"?"+params.Encode(), header, &raw); err != nil {
		return nil, fmt.Errorf("openrouteservice directions: %w", err)
	}
	if len(raw.Features) == 0 {
		return nil, fmt.Errorf("openrouteservice directions: %w", ErrNoRoute)
	}

	path, err := raw.Features[0].Geometry.toPath()
	if err != nil {
		return nil, fmt.Errorf("openrouteservice geometry: %w", err)
	}
	return path, nil
}

func lonLat(p geo.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
