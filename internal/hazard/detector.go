package hazard

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSeverity is the upper bound of the severity scale.
const MaxSeverity = 100

// Detect classifies a weather snapshot into zero or more hazard records at (lat, lon).
// Rules are evaluated independently; a rule whose inputs are missing is skipped.
// Detect has no side effects.
func Detect(lat, lon float64, snap Snapshot, source string, now time.Time) []Record {
	var out []Record
	add := func(t Type, severity int) {
		out = append(out, newRecord(lat, lon, t, severity, snap, source, now))
	}

	condition := strings.ToLower(snap.WeatherCondition)

	if strings.Contains(condition, "snow") {
		add(Snow, snowSeverity(snap))
	}
	if snap.Temperature != nil && *snap.Temperature <= 0 &&
		snap.Precipitation != nil && *snap.Precipitation > 0 {
		add(Ice, iceSeverity(*snap.Temperature))
	}
	if snap.Visibility != nil && *snap.Visibility < 1000 {
		add(LowVisibility, visibilitySeverity(*snap.Visibility))
	}
	if snap.WindSpeed != nil && *snap.WindSpeed > 10 {
		add(Wind, windSeverity(*snap.WindSpeed))
	}
	if snap.Temperature != nil && *snap.Temperature < -10 {
		add(ExtremeCold, coldSeverity(*snap.Temperature))
	}
	if strings.Contains(condition, "fog") {
		add(Fog, 60)
	}

	return out
}

func newRecord(lat, lon float64, t Type, severity int, snap Snapshot, source string, now time.Time) Record {
	return Record{
		ID:            uuid.NewString(),
		Latitude:      lat,
		Longitude:     lon,
		Type:          t,
		Severity:      ClampSeverity(severity),
		Source:        source,
		Timestamp:     now,
		Description:   snap.Description,
		Temperature:   snap.Temperature,
		WindSpeed:     snap.WindSpeed,
		Precipitation: snap.Precipitation,
		Visibility:    snap.Visibility,
	}
}

// ClampSeverity bounds s to [0, MaxSeverity].
func ClampSeverity(s int) int {
	return max(0, min(MaxSeverity, s))
}

func snowSeverity(snap Snapshot) int {
	severity := 50
	if snap.Precipitation != nil && *snap.Precipitation > 0 {
		severity += int(math.Min(30, *snap.Precipitation*10))
	}
	if snap.WindSpeed != nil && *snap.WindSpeed > 5 {
		severity += 10 // blowing snow
	}
	return severity
}

func iceSeverity(temp float64) int {
	severity := 70
	if temp < -5 {
		severity += 15 // black ice
	}
	return severity
}

func visibilitySeverity(vis float64) int {
	switch {
	case vis < 100:
		return 95
	case vis < 500:
		return 75
	default:
		return 50
	}
}

func windSeverity(speed float64) int {
	switch {
	case speed > 20:
		return 90
	case speed > 15:
		return 70
	default:
		return 50
	}
}

func coldSeverity(temp float64) int {
	switch {
	case temp < -20:
		return 95
	case temp < -15:
		return 80
	default:
		return 60
	}
}
