package parsing

import (
	"fmt"
	"strings"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// GPSTagsFromMap validates a raw GPS tag dictionary, keyed by EXIF tag id,
// and converts it into domain.GPSTags. An empty or nil map returns a block
// with Empty set. Required tags that are missing, carry an unexpected type or
// hold a negative rational yield domain.ErrMalformedGPS.
//
// Accepted value types:
//   - reference codes and date: string or []byte (trailing NULs trimmed)
//   - single rationals: domain.Rational, [2]int64, [2]int
//   - rational triples: [3]domain.Rational, []domain.Rational, [][2]int64, [][2]int
//   - altitude reference: byte, int, []byte of length 1
func GPSTagsFromMap(raw map[uint16]any) (domain.GPSTags, error) {
	if len(raw) == 0 {
		return domain.GPSTags{Empty: true}, nil
	}

	var (
		tags domain.GPSTags
		err  error
	)
	if tags.LatitudeRef, err = stringTag(raw, domain.GPSTagLatitudeRef); err != nil {
		return tags, err
	}
	if tags.Latitude, err = tripleTag(raw, domain.GPSTagLatitude); err != nil {
		return tags, err
	}
	if tags.LongitudeRef, err = stringTag(raw, domain.GPSTagLongitudeRef); err != nil {
		return tags, err
	}
	if tags.Longitude, err = tripleTag(raw, domain.GPSTagLongitude); err != nil {
		return tags, err
	}
	if tags.Altitude, err = rationalTag(raw, domain.GPSTagAltitude); err != nil {
		return tags, err
	}
	if tags.TimeStamp, err = tripleTag(raw, domain.GPSTagTimeStamp); err != nil {
		return tags, err
	}
	if tags.DateStamp, err = stringTag(raw, domain.GPSTagDateStamp); err != nil {
		return tags, err
	}

	if v, ok := raw[domain.GPSTagAltitudeRef]; ok {
		if tags.AltitudeRef, err = byteValue(v); err != nil {
			return tags, tagError(domain.GPSTagAltitudeRef, err)
		}
	}

	return tags, nil
}

func tagError(id uint16, err error) error {
	return fmt.Errorf("%w: tag %d: %v", domain.ErrMalformedGPS, id, err)
}

func lookup(raw map[uint16]any, id uint16) (any, error) {
	v, ok := raw[id]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: tag %d missing", domain.ErrMalformedGPS, id)
	}
	return v, nil
}

func stringTag(raw map[uint16]any, id uint16) (string, error) {
	v, err := lookup(raw, id)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return strings.TrimRight(s, "\x00"), nil
	case []byte:
		return strings.TrimRight(string(s), "\x00"), nil
	default:
		return "", tagError(id, fmt.Errorf("unexpected type %T", v))
	}
}

func rationalTag(raw map[uint16]any, id uint16) (domain.Rational, error) {
	v, err := lookup(raw, id)
	if err != nil {
		return domain.Rational{}, err
	}
	r, err := rationalValue(v)
	if err != nil {
		return domain.Rational{}, tagError(id, err)
	}
	return r, nil
}

func tripleTag(raw map[uint16]any, id uint16) ([3]domain.Rational, error) {
	var out [3]domain.Rational

	v, err := lookup(raw, id)
	if err != nil {
		return out, err
	}

	var items []any
	switch t := v.(type) {
	case [3]domain.Rational:
		items = []any{t[0], t[1], t[2]}
	case []domain.Rational:
		for _, r := range t {
			items = append(items, r)
		}
	case [][2]int64:
		for _, r := range t {
			items = append(items, r)
		}
	case [][2]int:
		for _, r := range t {
			items = append(items, r)
		}
	default:
		return out, tagError(id, fmt.Errorf("unexpected type %T", v))
	}

	if len(items) != 3 {
		return out, tagError(id, fmt.Errorf("expected 3 rationals, got %d", len(items)))
	}
	for i, item := range items {
		if out[i], err = rationalValue(item); err != nil {
			return out, tagError(id, err)
		}
	}
	return out, nil
}

// rationalValue converts an unsigned EXIF RATIONAL; negative parts are
// rejected.
func rationalValue(v any) (domain.Rational, error) {
	var r domain.Rational
	switch x := v.(type) {
	case domain.Rational:
		r = x
	case [2]int64:
		r = domain.Rational{Num: x[0], Den: x[1]}
	case [2]int:
		r = domain.Rational{Num: int64(x[0]), Den: int64(x[1])}
	default:
		return r, fmt.Errorf("unexpected rational type %T", v)
	}
	if r.Num < 0 || r.Den < 0 {
		return domain.Rational{}, fmt.Errorf("negative rational %d/%d", r.Num, r.Den)
	}
	return r, nil
}

func byteValue(v any) (byte, error) {
	switch b := v.(type) {
	case byte:
		return b, nil
	case int:
		if b < 0 || b > 255 {
			return 0, fmt.Errorf("value %d out of byte range", b)
		}
		return byte(b), nil
	case []byte:
		if len(b) != 1 {
			return 0, fmt.Errorf("expected 1 byte, got %d", len(b))
		}
		return b[0], nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
