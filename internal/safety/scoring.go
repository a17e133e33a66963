package safety

import (
	"math"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
)

const (
	// InfluenceRadiusKm is how close the nearest hazard must be to count
	// towards a path point's risk.
	InfluenceRadiusKm = 1.0
	// HotspotRadiusKm and HotspotSeverity select hazards reported as hotspots.
	HotspotRadiusKm = 0.5
	HotspotSeverity = 70

	walkingSpeedMS = 1.4
	minSpeedFactor = 0.5
)

// RiskScore averages proximity-weighted severity over the path points that
// have a hazard within InfluenceRadiusKm. Only the nearest hazard counts for
// each point; on equal distance the earlier hazard wins.
func RiskScore(path []geo.Point, hazards []hazard.Record) int {
	if len(hazards) == 0 {
		return 0
	}

	var total float64
	samples := 0
	for _, p := range path {
		nearest := -1
		best := math.Inf(1)
		for i, h := range hazards {
			if d := geo.DistanceKm(p.Lat, p.Lon, h.Latitude, h.Longitude); d < best {
				best = d
				nearest = i
			}
		}
		if nearest >= 0 && best < InfluenceRadiusKm {
			total += float64(hazards[nearest].Severity) * (1 - best)
			samples++
		}
	}

	if samples == 0 {
		return 0
	}
	return int(math.Floor(total / float64(samples)))
}

// Hotspots returns one entry per severe hazard lying within HotspotRadiusKm
// of any path point, in hazard order.
func Hotspots(path []geo.Point, hazards []hazard.Record) []hazard.Hotspot {
	out := []hazard.Hotspot{}
	for _, h := range hazards {
		if h.Severity < HotspotSeverity {
			continue
		}
		for _, p := range path {
			if geo.DistanceKm(p.Lat, p.Lon, h.Latitude, h.Longitude) < HotspotRadiusKm {
				out = append(out, hazard.Hotspot{Lat: h.Latitude, Lon: h.Longitude, Severity: h.Severity, Type: h.Type})
				break
			}
		}
	}
	return out
}

// DistanceMeters is the summed segment length of path.
func DistanceMeters(path []geo.Point) float64 {
	return geo.PathLengthKm(path) * 1000
}

// DurationSeconds estimates walking time, slowing by up to half at maximum risk.
func DurationSeconds(distanceMeters float64, riskScore int) int {
	factor := math.Max(minSpeedFactor, 1-float64(riskScore)/200)
	return int(distanceMeters / (walkingSpeedMS * factor))
}

// Recommendation maps a risk score to advice for the walker.
func Recommendation(riskScore int) string {
	switch {
	case riskScore > 80:
		return "High risk route. Consider delaying travel or finding alternative transportation."
	case riskScore > 60:
		return "Moderate risk. Wear appropriate footwear and allow extra travel time."
	case riskScore > 30:
		return "Route is passable with caution. Watch for icy patches."
	default:
		return "Route appears safe under current conditions."
	}
}
