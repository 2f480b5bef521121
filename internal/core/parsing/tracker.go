// Package parsing turns raw tracker messages and EXIF GPS blocks into
// validated geo-fixes. Everything here is pure: no I/O, no logging.
package parsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/pkg/geospatial"
)

// TrackerTimeLayout is the timestamp layout of a tracker message.
const TrackerTimeLayout = "02-Jan-2006 15:04:05"

// trackerPattern matches one satellite-tracker message, e.g.
//
//	Lat40deg26'46" Lon-79deg58'56" Alt+300 FT (0:07 ago) 12-Jul-2017 14:23:05 UTC Pittsburgh
//
// Submatches: lat deg/min/sec, lon deg/min/sec, altitude sign, altitude,
// timestamp.
var trackerPattern = regexp.MustCompile(
	`^Lat([0-9\s\-]+)deg(\d+)'(\d+)"\s` +
		`Lon([0-9\s\-]+)deg(\d+)'(\d+)"\s` +
		`Alt([+-])(\d+)\s\w{1,3}\s` +
		`\(.+?\)\s` +
		`(\d{2}-[A-Za-z]{3}-\d{4}\s\d{2}:\d{2}:\d{2})\sUTC` +
		`(?:\s(?s:.*))?$`,
)

// degreeToken is what remains of a degree field once whitespace is removed.
var degreeToken = regexp.MustCompile(`^-?\d+$`)

// ParseTrackerMessage extracts a fix from one tracker message. Anything that
// does not match the grammar, including coordinates outside the valid range,
// yields domain.ErrMalformedMessage. The message text becomes the SourceID.
func ParseTrackerMessage(text string) (*domain.GeoFix, error) {
	m := trackerPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: grammar mismatch", domain.ErrMalformedMessage)
	}

	lat, err := signedDMS(m[1], m[2], m[3])
	if err != nil {
		return nil, fmt.Errorf("%w: latitude: %v", domain.ErrMalformedMessage, err)
	}
	lon, err := signedDMS(m[4], m[5], m[6])
	if err != nil {
		return nil, fmt.Errorf("%w: longitude: %v", domain.ErrMalformedMessage, err)
	}

	alt, err := strconv.Atoi(m[8])
	if err != nil {
		return nil, fmt.Errorf("%w: altitude: %v", domain.ErrMalformedMessage, err)
	}
	if m[7] == "-" {
		alt = -alt
	}

	ts, err := time.Parse(TrackerTimeLayout, normalizeSpace(m[9]))
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", domain.ErrMalformedMessage, err)
	}

	fix, err := domain.NewGeoFix(domain.SourceTracker, text, lat, lon, float64(alt), ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedMessage, err)
	}
	return fix, nil
}

// signedDMS converts the three captured fields of one coordinate. The degree
// field may carry whitespace and a leading '-'.
func signedDMS(degField, minField, secField string) (float64, error) {
	tok := strings.Join(strings.Fields(degField), "")
	if !degreeToken.MatchString(tok) {
		return 0, fmt.Errorf("bad degree token %q", degField)
	}
	negative := strings.HasPrefix(tok, "-")

	deg, err := strconv.Atoi(strings.TrimPrefix(tok, "-"))
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(minField)
	if err != nil {
		return 0, err
	}
	secs, err := strconv.Atoi(secField)
	if err != nil {
		return 0, err
	}

	return geospatial.FromSignedDegrees(float64(deg), float64(mins), float64(secs), negative), nil
}

// normalizeSpace maps the single whitespace separator between date and time
// to a plain space so a tab still parses.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
