package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius (IUGG), meters per radian.
const EarthRadiusMeters = 6371008.8

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return EarthRadiusMeters * CentralAngle(lat1, lon1, lat2, lon2)
}

// CentralAngle returns the angle in radians subtended at the Earth's centre
// by two points given in degrees.
func CentralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// LatitudeSpan returns the latitude difference in degrees covered by
// radiusMeters along a meridian. Two points further apart in latitude than
// this are further apart than radiusMeters on the sphere.
func LatitudeSpan(radiusMeters float64) float64 {
	return toDeg(radiusMeters / EarthRadiusMeters)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
