// Package exif reads the GPS block of JPEG and TIFF images with goexif.
package exif

import (
	"fmt"
	"io"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// Reader implements ports.ExifReader.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

type gpsField struct {
	id      uint16
	name    goexif.FieldName
	convert func(*tiff.Tag) (any, error)
}

var gpsFields = []gpsField{
	{domain.GPSTagLatitudeRef, goexif.GPSLatitudeRef, asString},
	{domain.GPSTagLatitude, goexif.GPSLatitude, asRationals},
	{domain.GPSTagLongitudeRef, goexif.GPSLongitudeRef, asString},
	{domain.GPSTagLongitude, goexif.GPSLongitude, asRationals},
	{domain.GPSTagAltitudeRef, goexif.GPSAltitudeRef, asByte},
	{domain.GPSTagAltitude, goexif.GPSAltitude, asRational},
	{domain.GPSTagTimeStamp, goexif.GPSTimeStamp, asRationals},
	{domain.GPSTagDateStamp, goexif.GPSDateStamp, asString},
}

// ReadGPS decodes the image metadata and returns its GPS tags keyed by EXIF
// tag id. Images with readable EXIF but no GPS block yield an empty map.
// Tags whose type does not match are left out so that extraction reports
// the block as malformed.
func (Reader) ReadGPS(r io.Reader) (map[uint16]any, error) {
	x, err := goexif.Decode(r)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	raw := make(map[uint16]any, len(gpsFields))
	for _, f := range gpsFields {
		tag, err := x.Get(f.name)
		if err != nil {
			if goexif.IsTagNotPresentError(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		v, err := f.convert(tag)
		if err != nil {
			continue
		}
		raw[f.id] = v
	}
	return raw, nil
}

func asString(t *tiff.Tag) (any, error) {
	return t.StringVal()
}

func asByte(t *tiff.Tag) (any, error) {
	v, err := t.Int(0)
	if err != nil {
		return nil, err
	}
	if v < 0 || v > 255 {
		return nil, fmt.Errorf("value %d out of byte range", v)
	}
	return byte(v), nil
}

func asRational(t *tiff.Tag) (any, error) {
	num, den, err := t.Rat2(0)
	if err != nil {
		return nil, err
	}
	return domain.Rational{Num: num, Den: den}, nil
}

func asRationals(t *tiff.Tag) (any, error) {
	out := make([]domain.Rational, 0, t.Count)
	for i := 0; i < int(t.Count); i++ {
		num, den, err := t.Rat2(i)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Rational{Num: num, Den: den})
	}
	return out, nil
}
