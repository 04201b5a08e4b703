package geo

import "math"

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point is a usable coordinate.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Result is the outcome of a radius check.
type Result struct {
	DistanceM float64
	Within    bool
}

// Check verifies that submitted lies within radiusM meters of center.
// Missing or malformed coordinates fail the check; the check never passes
// without a measured distance.
func Check(center Point, submitted *Point, radiusM float64) Result {
	if submitted == nil || !submitted.Valid() || !center.Valid() || radiusM <= 0 {
		return Result{DistanceM: math.NaN(), Within: false}
	}
	d := DistanceMeters(center, *submitted)
	return Result{DistanceM: d, Within: d <= radiusM}
}
