package geo

import (
	"math"

	"github.com/mapfold/poidex/internal/domain"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// VectorDim is the fixed dimension of the ECEF vectors stored in the
// registry's KNN index.
const VectorDim = 3

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance returns the great-circle distance in meters between two
// coordinate pairs.
func Distance(a, b domain.Coordinates) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ToVector converts a coordinate pair to a unit-sphere ECEF vector for KNN
// storage. L2 distance between two such vectors maps back to great-circle
// distance via L2ToMeters.
func ToVector(c domain.Coordinates) []float32 {
	lat := c.Lat * math.Pi / 180
	lon := c.Lng * math.Pi / 180
	x := math.Cos(lat) * math.Cos(lon)
	y := math.Cos(lat) * math.Sin(lon)
	z := math.Sin(lat)
	return []float32{float32(x), float32(y), float32(z)}
}

// L2ToMeters converts L2 distance between two unit-sphere ECEF vectors to
// approximate great-circle distance in meters. Uses the identity
// L2^2 = 2*(1 - cos(angle)), so angle = 2*arcsin(L2/2).
func L2ToMeters(l2dist float64) float64 {
	// Numerical noise can push the half-chord slightly above 1.
	half := l2dist / 2
	if half > 1 {
		half = 1
	}
	angle := 2 * math.Asin(half)
	return EarthRadiusMeters * angle
}

// RadiusToL2 converts a great-circle radius in meters to the equivalent L2
// distance bound on the unit sphere, used to size KNN radius queries.
func RadiusToL2(radiusMeters float64) float64 {
	angle := radiusMeters / EarthRadiusMeters
	if angle > math.Pi {
		angle = math.Pi
	}
	return 2 * math.Sin(angle/2)
}
