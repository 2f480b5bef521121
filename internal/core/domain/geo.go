package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Rational is an EXIF RATIONAL value (numerator / denominator).
type Rational struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

// Float returns Num/Den. Callers must reject a zero denominator first.
func (r Rational) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

// EXIF GPS IFD tag ids.
const (
	GPSTagLatitudeRef  uint16 = 1
	GPSTagLatitude     uint16 = 2
	GPSTagLongitudeRef uint16 = 3
	GPSTagLongitude    uint16 = 4
	GPSTagAltitudeRef  uint16 = 5
	GPSTagAltitude     uint16 = 6
	GPSTagTimeStamp    uint16 = 7
	GPSTagDateStamp    uint16 = 29
)

// GPSTags is the structured form of an EXIF GPS block.
// Empty reports whether the block carried no tags at all.
type GPSTags struct {
	Empty        bool
	LatitudeRef  string
	Latitude     [3]Rational // degrees, minutes, seconds
	LongitudeRef string
	Longitude    [3]Rational
	AltitudeRef  byte // 0 above sea level, 1 below
	Altitude     Rational
	TimeStamp    [3]Rational // hour, minute, second
	DateStamp    string      // YYYY:MM:DD
}
