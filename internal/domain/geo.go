package domain

import "math"

const (
	// AlertRadiusMeters is the fixed fan-out radius. Distances strictly below it are in range.
	AlertRadiusMeters = 35000.0

	earthRadiusMeters = 6371008.8

	// MaxGeoLatitude is the web-mercator bound Redis GEO accepts; nearer the poles
	// a position cannot be indexed.
	MaxGeoLatitude = 85.05112878
)

type Point struct {
	Latitude  float64 `json:"latitude" db:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" db:"longitude" validate:"gte=-180,lte=180"`
}

func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// Indexable reports whether p is valid and inside the latitude band the geo index covers.
func (p Point) Indexable() bool {
	return p.Valid() && math.Abs(p.Latitude) <= MaxGeoLatitude
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// InRadius applies the engine's boundary policy: exactly radius is out.
func InRadius(distance, radius float64) bool {
	return distance < radius
}

// Destination returns the point reached by travelling distance meters from p on the given bearing (degrees).
func Destination(p Point, bearingDeg, distance float64) Point {
	delta := distance / earthRadiusMeters
	theta := bearingDeg * math.Pi / 180
	lat1 := p.Latitude * math.Pi / 180
	lng1 := p.Longitude * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Latitude: lat2 * 180 / math.Pi, Longitude: lng2 * 180 / math.Pi}
}

// BoundingBox is a coarse lat/lng rectangle that contains every point within radius of center.
type BoundingBox struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

func BoxAround(center Point, radius float64) BoundingBox {
	dLat := radius / earthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return BoundingBox{
		MinLat: center.Latitude - dLat,
		MaxLat: center.Latitude + dLat,
		MinLng: center.Longitude - dLng,
		MaxLng: center.Longitude + dLng,
	}
}
