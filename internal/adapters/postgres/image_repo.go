package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// ImageRepo implements ports.ImageRepository with pgx.
type ImageRepo struct {
	db *DB
}

// NewImageRepo creates a new ImageRepo.
func NewImageRepo(db *DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// Exists reports whether an image name has been processed before.
func (r *ImageRepo) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM images WHERE name = $1)`, name).Scan(&ok)
	return ok, err
}

// Save stores a processed image. Placeholders carry no location.
func (r *ImageRepo) Save(ctx context.Context, img *domain.ProcessedImage) error {
	var (
		lon, lat, alt sql.NullFloat64
		taken         sql.NullTime
	)
	if img.Located && img.Fix != nil {
		lon = sql.NullFloat64{Float64: img.Fix.Longitude, Valid: true}
		lat = sql.NullFloat64{Float64: img.Fix.Latitude, Valid: true}
		alt = sql.NullFloat64{Float64: img.Fix.Altitude, Valid: true}
		taken = sql.NullTime{Time: img.Fix.Timestamp, Valid: true}
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO images (name, located, reason, location, altitude, taken_at, processed_at)
		VALUES ($1, $2, NULLIF($3, ''),
		        CASE WHEN $4::float8 IS NULL THEN NULL
		             ELSE ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography END,
		        $6, $7, $8)
	`, img.Name, img.Located, img.Reason, lon, lat, alt, taken, img.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

const imageColumns = `
	name, located, COALESCE(reason, ''),
	ST_Y(location::geometry), ST_X(location::geometry),
	altitude, taken_at, processed_at`

// List returns processed images in processing order.
func (r *ImageRepo) List(ctx context.Context, limit, offset int) ([]domain.ProcessedImage, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+imageColumns+`
		FROM images
		ORDER BY processed_at, name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []domain.ProcessedImage{}
	for rows.Next() {
		var (
			img           domain.ProcessedImage
			lat, lon, alt sql.NullFloat64
			taken         sql.NullTime
		)
		if err := rows.Scan(&img.Name, &img.Located, &img.Reason, &lat, &lon, &alt, &taken, &img.ProcessedAt); err != nil {
			return nil, err
		}
		if img.Located && lat.Valid && lon.Valid {
			img.Fix = photoFix(img.Name, lat.Float64, lon.Float64, alt.Float64, taken.Time)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// Count returns the number of processed images.
func (r *ImageRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM images`).Scan(&n)
	return n, err
}

// LocatedFixes returns the fix of every located image in processing order.
func (r *ImageRepo) LocatedFixes(ctx context.Context) ([]domain.GeoFix, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, ST_Y(location::geometry), ST_X(location::geometry),
		       COALESCE(altitude, 0), taken_at
		FROM images
		WHERE located
		ORDER BY processed_at, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fixes := []domain.GeoFix{}
	for rows.Next() {
		var (
			name          string
			lat, lon, alt float64
			taken         time.Time
		)
		if err := rows.Scan(&name, &lat, &lon, &alt, &taken); err != nil {
			return nil, err
		}
		fixes = append(fixes, *photoFix(name, lat, lon, alt, taken))
	}
	return fixes, rows.Err()
}

func photoFix(name string, lat, lon, alt float64, taken time.Time) *domain.GeoFix {
	return &domain.GeoFix{
		Source:    domain.SourcePhoto,
		SourceID:  name,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Timestamp: taken.UTC(),
	}
}
