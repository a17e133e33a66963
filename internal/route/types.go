package route

import (
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/saferoute/internal/geo"
	"github.com/neexbeast/saferoute/internal/hazard"
)

// Record is a computed route. Records are written once and never updated.
type Record struct {
	ID              string           `json:"id"`
	RequesterID     string           `json:"requester_id,omitempty"` // empty for anonymous requests
	From            geo.Point        `json:"from"`
	To              geo.Point        `json:"to"`
	Path            []geo.Point      `json:"path"`
	RiskScore       int              `json:"risk_score"`
	DistanceMeters  float64          `json:"distance_meters"`
	DurationSeconds int              `json:"duration_seconds"`
	Hotspots        []hazard.Hotspot `json:"hotspots"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Fingerprint is the exact-match cache key for a route request.
type Fingerprint struct {
	RequesterID string
	From        geo.Point
	To          geo.Point
}

// Fingerprint returns the cache key the record answers.
func (r Record) Fingerprint() Fingerprint {
	return Fingerprint{RequesterID: r.RequesterID, From: r.From, To: r.To}
}

// String renders the fingerprint with full float precision so distinct
// coordinates never collide.
func (f Fingerprint) String() string {
	parts := []string{
		f.RequesterID,
		strconv.FormatFloat(f.From.Lat, 'g', -1, 64),
		strconv.FormatFloat(f.From.Lon, 'g', -1, 64),
		strconv.FormatFloat(f.To.Lat, 'g', -1, 64),
		strconv.FormatFloat(f.To.Lon, 'g', -1, 64),
	}
	return strings.Join(parts, "|")
}
