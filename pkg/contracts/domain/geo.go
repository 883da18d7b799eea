package domain

import "math"

// earthRadiusMetres is the mean Earth radius used for great-circle distances.
const earthRadiusMetres = 6371008.8

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// DistanceMetres returns the haversine distance between a and b.
func DistanceMetres(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMetres * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBox returns a box containing every point within metres of p. It
// over-approximates the circle, so callers refine with DistanceMetres.
// Longitude wrap-around at the antimeridian is not handled.
func BoundingBox(p Point, metres float64) Box {
	dLat := metres / (earthRadiusMetres * math.Pi / 180)
	dLng := 180.0
	if c := math.Cos(p.Lat * math.Pi / 180); c > 1e-6 {
		dLng = math.Min(dLat/c, 180)
	}
	return Box{
		MinLat: p.Lat - dLat,
		MaxLat: p.Lat + dLat,
		MinLng: p.Lng - dLng,
		MaxLng: p.Lng + dLng,
	}
}
