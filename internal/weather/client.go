package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/saferoute/internal/hazard"
	"github.com/neexbeast/saferoute/internal/httpjson"
)

// Source is the provider name stamped on hazard records derived from this client.
const Source = "openweather"

const (
	defaultTimeout = 5 * time.Second
	owmDefaultURL  = "https://api.openweathermap.org/data/2.5/weather"
)

// NeutralSnapshot is the weather assumed when the provider cannot be reached.
// It triggers no hazard rules.
func NeutralSnapshot() hazard.Snapshot {
	humidity := 50
	return hazard.Snapshot{
		Temperature:      hazard.Float(0),
		WeatherCondition: "Unknown",
		Description:      "Weather data unavailable",
		WindSpeed:        hazard.Float(0),
		Precipitation:    hazard.Float(0),
		Visibility:       hazard.Float(10000),
		Humidity:         &humidity,
	}
}

// Client fetches current conditions from OpenWeatherMap by coordinate.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClientWithURL constructs a Client pointing at baseURL. An empty baseURL
// uses the OpenWeatherMap endpoint and a zero timeout falls back to 5 seconds.
func NewClientWithURL(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = owmDefaultURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type owmResponse struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Rain       *struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Snow *struct {
		OneHour *float64 `json:"1h"`
	} `json:"snow"`
}

// Fetch retrieves current weather at (lat, lon).
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*hazard.Snapshot, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	endpoint := c.baseURL + "?" + params.Encode()

	var raw owmResponse
	if err := httpjson.Get(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("openweathermap fetch for %f,%f: %w", lat, lon, err)
	}

	snap := &hazard.Snapshot{Visibility: raw.Visibility}
	if raw.Main != nil {
		snap.Temperature = raw.Main.Temp
		snap.Humidity = raw.Main.Humidity
	}
	if len(raw.Weather) > 0 {
		snap.WeatherCondition = raw.Weather[0].Main
		snap.Description = raw.Weather[0].Description
	}
	if raw.Wind != nil {
		snap.WindSpeed = raw.Wind.Speed
	}

	// Rain and snow volumes are reported separately; absence means none fell.
	precipitation := 0.0
	if raw.Rain != nil && raw.Rain.OneHour != nil {
		precipitation += *raw.Rain.OneHour
	}
	if raw.Snow != nil && raw.Snow.OneHour != nil {
		precipitation += *raw.Snow.OneHour
	}
	snap.Precipitation = &precipitation

	return snap, nil
}
