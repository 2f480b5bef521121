package geospatial

import (
	"errors"
	"fmt"
	"math"
)

// Axis tells FromHemisphere which reference codes are legal.
type Axis int

const (
	AxisLatitude Axis = iota
	AxisLongitude
)

// ErrInvalidHemisphere is returned for a reference code that is not valid
// for the axis.
var ErrInvalidHemisphere = errors.New("invalid hemisphere code")

// FromSignedDegrees converts D/M/S to decimal degrees, taking the sign from
// the degrees field: |deg| + mins/60 + secs/3600, negated when deg is negative.
// negative must be set by callers that parsed a "-0" degree token, where the
// sign cannot be recovered from the number itself.
func FromSignedDegrees(deg, mins, secs float64, negative bool) float64 {
	v := math.Abs(deg) + mins/60 + secs/3600
	if negative || math.Signbit(deg) {
		return -v
	}
	return v
}

// FromHemisphere converts D/M/S to decimal degrees using an explicit
// hemisphere reference: N and E are positive, S and W negative.
// N/S are only accepted for latitude and E/W only for longitude.
func FromHemisphere(deg, mins, secs float64, code string, axis Axis) (float64, error) {
	sign, err := hemisphereSign(code, axis)
	if err != nil {
		return 0, err
	}
	return sign * (math.Abs(deg) + mins/60 + secs/3600), nil
}

func hemisphereSign(code string, axis Axis) (float64, error) {
	switch axis {
	case AxisLatitude:
		switch code {
		case "N":
			return 1, nil
		case "S":
			return -1, nil
		}
	case AxisLongitude:
		switch code {
		case "E":
			return 1, nil
		case "W":
			return -1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidHemisphere, code)
}
