package hazard

import (
	"fmt"
	"time"
)

// Type is the closed set of hazard categories.
type Type string

const (
	Snow          Type = "SNOW"
	Ice           Type = "ICE"
	LowVisibility Type = "LOW_VISIBILITY"
	Wind          Type = "WIND"
	ExtremeCold   Type = "EXTREME_COLD"
	Fog           Type = "FOG"
)

// Types lists every hazard type in declaration order.
var Types = []Type{Snow, Ice, LowVisibility, Wind, ExtremeCold, Fog}

// Valid reports whether t is one of the known hazard types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType converts a stored or user-supplied value to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown hazard type %q", s)
	}
	return t, nil
}

// Snapshot holds current weather observations for a coordinate.
// Nil fields were not reported by the provider.
type Snapshot struct {
	Temperature      *float64 `json:"temperature,omitempty"`   // °C
	WeatherCondition string   `json:"weather_condition"`       // e.g. "Snow", "Fog"
	Description      string   `json:"description"`             // free text from the provider
	WindSpeed        *float64 `json:"wind_speed,omitempty"`    // m/s
	Precipitation    *float64 `json:"precipitation,omitempty"` // mm over the last hour
	Visibility       *float64 `json:"visibility,omitempty"`    // meters
	Humidity         *int     `json:"humidity,omitempty"`      // percent
}

// Record is a typed, severity-scored hazard at a point in time and space.
type Record struct {
	ID          string    `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Type        Type      `json:"hazard_type"`
	Severity    int       `json:"severity"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`

	Temperature   *float64 `json:"temperature,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	Visibility    *float64 `json:"visibility,omitempty"`
}

// Hotspot is a severe hazard lying close to a computed path.
type Hotspot struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Severity int     `json:"severity"`
	Type     Type    `json:"hazard_type"`
}

// Summary is the worst observed severity for one hazard type in an area.
type Summary struct {
	Type        Type   `json:"type"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

// Float is a convenience for building Snapshots with literal values.
func Float(v float64) *float64 { return &v }
