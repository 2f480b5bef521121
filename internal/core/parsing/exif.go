package parsing

import (
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/pkg/geospatial"
)

// ExifTimeLayout is the layout of the GPS date stamp joined with the
// reconstructed time of day.
const ExifTimeLayout = "2006:01:02 15:04:05"

// ExtractExifGeo builds a fix from a structured EXIF GPS block.
//
//   - an empty block yields domain.ErrNoGPSData;
//   - a reference code other than N/S (latitude) or E/W (longitude) yields
//     domain.ErrInvalidHemisphere;
//   - a zero denominator, an unparsable date/time or an out-of-range
//     coordinate yields domain.ErrMalformedGPS.
//
// An altitude reference of 1 means below sea level and negates the altitude.
// This departs from the historical behaviour, which ignored tag 5 and always
// reported the altitude as the plain ratio of tag 6.
func ExtractExifGeo(sourceID string, tags domain.GPSTags) (*domain.GeoFix, error) {
	if tags.Empty {
		return nil, domain.ErrNoGPSData
	}

	lat, err := hemisphereDMS(tags.Latitude, tags.LatitudeRef, geospatial.AxisLatitude)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := hemisphereDMS(tags.Longitude, tags.LongitudeRef, geospatial.AxisLongitude)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	if tags.Altitude.Den == 0 {
		return nil, fmt.Errorf("%w: altitude has zero denominator", domain.ErrMalformedGPS)
	}
	alt := tags.Altitude.Float()
	if tags.AltitudeRef == 1 {
		alt = -alt
	}

	ts, err := gpsTimestamp(tags.DateStamp, tags.TimeStamp)
	if err != nil {
		return nil, err
	}

	fix, err := domain.NewGeoFix(domain.SourcePhoto, sourceID, lat, lon, alt, ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedGPS, err)
	}
	return fix, nil
}

func hemisphereDMS(dms [3]domain.Rational, ref string, axis geospatial.Axis) (float64, error) {
	for _, r := range dms {
		if r.Den == 0 {
			return 0, fmt.Errorf("%w: zero denominator", domain.ErrMalformedGPS)
		}
	}

	v, err := geospatial.FromHemisphere(dms[0].Float(), dms[1].Float(), dms[2].Float(), ref, axis)
	if errors.Is(err, geospatial.ErrInvalidHemisphere) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidHemisphere, ref)
	}
	return v, err
}

// gpsTimestamp joins the date stamp with the integer hour, minute and second
// of the time stamp. Fractional seconds are truncated.
func gpsTimestamp(date string, hms [3]domain.Rational) (time.Time, error) {
	var parts [3]int64
	for i, r := range hms {
		if r.Den == 0 {
			return time.Time{}, fmt.Errorf("%w: time stamp has zero denominator", domain.ErrMalformedGPS)
		}
		parts[i] = r.Num / r.Den
	}

	raw := fmt.Sprintf("%s %02d:%02d:%02d", date, parts[0], parts[1], parts[2])
	ts, err := time.Parse(ExifTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", domain.ErrMalformedGPS, raw, err)
	}
	return ts, nil
}
