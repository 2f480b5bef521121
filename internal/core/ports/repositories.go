package ports

import (
	"context"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// FixRepository persists tracker fixes.
type FixRepository interface {
	// Insert stores a fix and sets its ID.
	Insert(ctx context.Context, fix *domain.GeoFix) error
	// List returns fixes oldest first.
	List(ctx context.Context, limit, offset int) ([]domain.GeoFix, error)
	Count(ctx context.Context) (int, error)
}

// ImageRepository persists processed images, located or not.
type ImageRepository interface {
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, img *domain.ProcessedImage) error
	List(ctx context.Context, limit, offset int) ([]domain.ProcessedImage, error)
	Count(ctx context.Context) (int, error)
	// LocatedFixes returns the fixes of all located images in processing order.
	LocatedFixes(ctx context.Context) ([]domain.GeoFix, error)
}
