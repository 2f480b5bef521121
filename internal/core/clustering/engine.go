// Package clustering groups batches of fixes into spatial clusters.
package clustering

import (
	"fmt"
	"math"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/pkg/geospatial"
)

// ClusterFixes partitions fixes into density-connected clusters: two fixes
// share a cluster when a chain of fixes, each within radiusMeters of the
// next, joins them. Every fix ends up in exactly one cluster.
//
// Fixes repeating an earlier SourceID are dropped before clustering, so only
// the first occurrence contributes to membership and centre. Clusters are
// returned in order of their first member's position in the input and are
// numbered from 1. The input slice is not modified.
func ClusterFixes(fixes []domain.GeoFix, radiusMeters float64) ([]domain.Cluster, error) {
	if math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) || radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius %v", domain.ErrInvalidArgument, radiusMeters)
	}

	unique := make([]domain.GeoFix, 0, len(fixes))
	seen := make(map[string]struct{}, len(fixes))
	for i, f := range fixes {
		if err := domain.ValidateCoordinate(f.Latitude, f.Longitude); err != nil {
			return nil, fmt.Errorf("%w: fix %d: %w", domain.ErrInvalidArgument, i, err)
		}
		if _, dup := seen[f.SourceID]; dup {
			continue
		}
		seen[f.SourceID] = struct{}{}
		unique = append(unique, f)
	}

	points := make([]geospatial.Point, len(unique))
	for i, f := range unique {
		points[i] = geospatial.Point{Lat: f.Latitude, Lon: f.Longitude}
	}

	labels := geospatial.DBSCAN(points, radiusMeters, 1)

	clusters := make([]domain.Cluster, 0)
	members := make([][]geospatial.Point, 0)
	for i, label := range labels {
		if label == geospatial.Noise {
			continue
		}
		for len(clusters) <= label {
			clusters = append(clusters, domain.Cluster{ID: len(clusters) + 1})
			members = append(members, nil)
		}
		clusters[label].Members = append(clusters[label].Members, unique[i])
		members[label] = append(members[label], points[i])
	}

	for i := range clusters {
		c, err := geospatial.Centroid(members[i])
		if err != nil {
			return nil, fmt.Errorf("%w: cluster %d: %v", domain.ErrInvalidArgument, clusters[i].ID, err)
		}
		clusters[i].Center = domain.GeoPoint{Lat: c.Lat, Lon: c.Lon}
	}

	return clusters, nil
}
