package geospatial

import (
	"errors"
	"math"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// ErrEmptyInput is returned when a computation needs at least one point.
var ErrEmptyInput = errors.New("empty point set")

// Centroid returns the spherical mean of points: each point is mapped to a
// unit vector, the vectors are averaged per axis, and the mean vector is
// converted back to degrees. This avoids the antimeridian error of
// averaging raw longitudes.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, ErrEmptyInput
	}

	var x, y, z float64
	for _, p := range points {
		lat := toRad(p.Lat)
		lon := toRad(p.Lon)
		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}
	n := float64(len(points))
	x /= n
	y /= n
	z /= n

	lat := math.Atan2(z, math.Sqrt(x*x+y*y))
	lon := math.Atan2(y, x)
	return Point{Lat: toDeg(lat), Lon: toDeg(lon)}, nil
}
