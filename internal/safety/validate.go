package safety

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/neexbeast/saferoute/internal/geo"
)

const (
	MinRadiusKm      = 0.1
	MaxRadiusKm      = 100.0
	DefaultRadiusKm  = 5.0
	MinDays          = 1
	MaxDays          = 90
	MaxRouteKm       = 50.0
	DefaultHistory   = 7
	DefaultRouteDays = 30
)

// Route preferences. Only logged; scoring is the same for all of them.
const (
	PreferenceSafe  = "safe"
	PreferenceFast  = "fast"
	PreferenceShort = "short"
)

// ValidationError reports every invalid parameter of a request at once.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string { return e.errs.Error() }

// Unwrap exposes the individual problems to errors.Is/As.
func (e *ValidationError) Unwrap() []error { return e.errs.WrappedErrors() }

// Problems returns one message per invalid parameter.
func (e *ValidationError) Problems() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

func formatProblems(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) failf(format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) coordinate(name string, lat, lon float64) bool {
	ok := true
	if !geo.ValidLat(lat) {
		v.failf("%s latitude must be between -90 and 90, got %v", name, lat)
		ok = false
	}
	if !geo.ValidLon(lon) {
		v.failf("%s longitude must be between -180 and 180, got %v", name, lon)
		ok = false
	}
	return ok
}

func (v *validator) radius(r float64) {
	if !(r >= MinRadiusKm && r <= MaxRadiusKm) {
		v.failf("radius must be between %.1f and %.1f km, got %v", MinRadiusKm, MaxRadiusKm, r)
	}
}

func (v *validator) days(d int) {
	if d < MinDays || d > MaxDays {
		v.failf("days must be between %d and %d, got %d", MinDays, MaxDays, d)
	}
}

func (v *validator) err() error {
	if v.errs == nil {
		return nil
	}
	v.errs.ErrorFormat = formatProblems
	return &ValidationError{errs: v.errs}
}

// Validate checks a route request. Endpoint distance rules are only applied
// when both endpoints are valid coordinates.
func (r RouteRequest) Validate() error {
	var v validator
	fromOK := v.coordinate("from", r.From.Lat, r.From.Lon)
	toOK := v.coordinate("to", r.To.Lat, r.To.Lon)

	if fromOK && toOK {
		if r.From == r.To {
			v.failf("start and end coordinates cannot be the same")
		} else if d := geo.Distance(r.From, r.To); d > MaxRouteKm {
			v.failf("route is too long (%.2f km), maximum distance is %.0f km", d, MaxRouteKm)
		}
	}

	switch r.Preference {
	case "", PreferenceSafe, PreferenceFast, PreferenceShort:
	default:
		v.failf("pref must be one of safe, fast, short, got %q", r.Preference)
	}

	return v.err()
}

// Validate checks an area request.
func (r AreaRequest) Validate() error {
	var v validator
	v.coordinate("location", r.Lat, r.Lon)
	v.radius(r.RadiusKm)
	return v.err()
}

// Validate checks a hazard history request.
func (r HistoryRequest) Validate() error {
	var v validator
	v.coordinate("location", r.Lat, r.Lon)
	v.radius(r.RadiusKm)
	v.days(r.Days)
	return v.err()
}

// ValidateDays checks a route history lookback.
func ValidateDays(days int) error {
	var v validator
	v.days(days)
	return v.err()
}
