package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samirrijal/waypoint/internal/core/domain"
)

// FixRepo implements ports.FixRepository with pgx.
type FixRepo struct {
	db *DB
}

// NewFixRepo creates a new FixRepo.
func NewFixRepo(db *DB) *FixRepo {
	return &FixRepo{db: db}
}

// Insert stores a fix and fills in its generated ID.
func (r *FixRepo) Insert(ctx context.Context, f *domain.GeoFix) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO fixes (source, source_id, location, altitude, observed_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6)
		RETURNING id
	`, f.Source, f.SourceID, f.Longitude, f.Latitude, f.Altitude, f.Timestamp).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("insert fix: %w", err)
	}
	return nil
}

// List returns fixes in observation order, newest last.
func (r *FixRepo) List(ctx context.Context, limit, offset int) ([]domain.GeoFix, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, source, source_id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       altitude, observed_at
		FROM fixes
		ORDER BY observed_at, created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFixes(rows)
}

// Count returns the number of stored fixes.
func (r *FixRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM fixes`).Scan(&n)
	return n, err
}

func scanFixes(rows pgx.Rows) ([]domain.GeoFix, error) {
	fixes := []domain.GeoFix{}
	for rows.Next() {
		var f domain.GeoFix
		if err := rows.Scan(&f.ID, &f.Source, &f.SourceID, &f.Latitude, &f.Longitude, &f.Altitude, &f.Timestamp); err != nil {
			return nil, err
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}
