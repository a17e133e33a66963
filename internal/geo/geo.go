package geo

import "math"

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an axis-aligned lat/lon box. Edges are inclusive.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the Haversine great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Distance is DistanceKm for two points.
func Distance(a, b Point) float64 {
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BoundingBox expands a centre point by radiusKm using a flat degree approximation.
// The longitude delta diverges at the poles; callers must not pass lat = ±90.
func BoundingBox(lat, lon, radiusKm float64) Bounds {
	latDelta := radiusKm / kmPerDegree
	lonDelta := radiusKm / (kmPerDegree * math.Cos(toRadians(lat)))
	return Bounds{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// PathBounds returns the min/max box of all points. An empty path yields the zero Bounds.
func PathBounds(path []Point) Bounds {
	if len(path) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: path[0].Lat, MaxLat: path[0].Lat, MinLon: path[0].Lon, MaxLon: path[0].Lon}
	for _, p := range path[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Expand grows the box by deg degrees on every side.
func (b Bounds) Expand(deg float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - deg,
		MaxLat: b.MaxLat + deg,
		MinLon: b.MinLon - deg,
		MaxLon: b.MaxLon + deg,
	}
}

// Interpolate returns segments+1 evenly spaced points from a to b, endpoints included.
func Interpolate(a, b Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	path := make([]Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		ratio := float64(i) / float64(segments)
		path = append(path, Point{
			Lat: a.Lat + (b.Lat-a.Lat)*ratio,
			Lon: a.Lon + (b.Lon-a.Lon)*ratio,
		})
	}
	return path
}

// PathLengthKm sums the Haversine distance of consecutive points.
func PathLengthKm(path []Point) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += Distance(path[i], path[i+1])
	}
	return total
}

// ValidLat reports whether lat ∈ [-90,90]. NaN is invalid.
func ValidLat(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLon reports whether lon ∈ [-180,180]. NaN is invalid.
func ValidLon(lon float64) bool {
	return lon >= -180 && lon <= 180
}
