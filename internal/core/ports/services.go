package ports

import (
	"context"
	"io"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFix(ctx context.Context, fix *domain.GeoFix) error
	PublishImage(ctx context.Context, img *domain.ProcessedImage) error
	PublishClusters(ctx context.Context, snap *domain.ClusterSnapshot) error
}

// EventSubscriber subscribes to inbound messages from a message broker.
type EventSubscriber interface {
	// SubscribeTrackerMessages delivers raw tracker message text.
	SubscribeTrackerMessages(ctx context.Context, handler func(ctx context.Context, text string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ClusterInvalidator drops cached cluster snapshots once the set of located
// images changes.
type ClusterInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ExifReader reads the GPS block of an image as a raw tag dictionary keyed
// by EXIF tag id. An image without GPS tags yields an empty map.
type ExifReader interface {
	ReadGPS(r io.Reader) (map[uint16]any, error)
}
