package domain

import (
	"fmt"
	"math"
	"time"
)

// FixSource identifies where a GeoFix was extracted from.
type FixSource string

const (
	SourceTracker FixSource = "tracker"
	SourcePhoto   FixSource = "photo"
)

// GeoFix is a single validated geographic observation.
// Build it with NewGeoFix; the zero value is not a valid fix.
type GeoFix struct {
	ID        string    `json:"id,omitempty"`
	SourceID  string    `json:"source_id"` // message text or image filename
	Source    FixSource `json:"source"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"` // unit defined by the device
	Timestamp time.Time `json:"timestamp"`
}

// NewGeoFix validates the coordinate ranges and returns the fix.
func NewGeoFix(source FixSource, sourceID string, lat, lon, alt float64, ts time.Time) (*GeoFix, error) {
	if err := ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}
	return &GeoFix{
		SourceID:  sourceID,
		Source:    source,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Timestamp: ts,
	}, nil
}

// Point returns the fix position.
func (f GeoFix) Point() GeoPoint {
	return GeoPoint{Lat: f.Latitude, Lon: f.Longitude}
}

// ValidateCoordinate checks -90 <= lat <= 90 and -180 <= lon <= 180.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrCoordinateOutOfRange, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrCoordinateOutOfRange, lon)
	}
	return nil
}

// Cluster is a group of fixes connected through chains of neighbours that
// are each within the clustering radius of the next.
type Cluster struct {
	ID      int      `json:"id"` // stable only within one clustering run
	Center  GeoPoint `json:"center"`
	Members []GeoFix `json:"members"`
}

// ClusterSnapshot is the result of one clustering run over a full batch.
type ClusterSnapshot struct {
	RadiusMeters float64   `json:"radius_meters"`
	ComputedAt   time.Time `json:"computed_at"`
	Inputs       int       `json:"inputs"`
	Clusters     []Cluster `json:"clusters"`
}

// ProcessedImage records that an image went through GPS extraction.
// Images without a usable coordinate are kept as placeholders so they are
// never processed twice, but they never reach clustering.
type ProcessedImage struct {
	Name        string    `json:"name"`
	Located     bool      `json:"located"`
	Reason      string    `json:"reason,omitempty"` // why Located is false
	Fix         *GeoFix   `json:"fix,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Reasons recorded on a ProcessedImage that could not be located.
const (
	ReasonNoGPSData         = "no_gps_data"
	ReasonInvalidHemisphere = "invalid_hemisphere"
	ReasonMalformedGPS      = "malformed_gps"
	ReasonUnreadableExif    = "unreadable_exif"
)
