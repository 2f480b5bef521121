package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/waypoint/internal/core/clustering"
	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/pkg/metrics"
	"github.com/samirrijal/waypoint/internal/pkg/telemetry"
)

// ClusterService recomputes and serves cluster snapshots of located images.
type ClusterService struct {
	images    ports.ImageRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	ttl       int
	now       func() time.Time
}

// NewClusterService creates a new ClusterService. cache and publisher may be
// nil; ttlSeconds bounds how long a snapshot is served from cache.
func NewClusterService(images ports.ImageRepository, cache ports.CacheService, publisher ports.EventPublisher, ttlSeconds int) *ClusterService {
	return &ClusterService{images: images, cache: cache, publisher: publisher, ttl: ttlSeconds, now: time.Now}
}

// clusterGenerationKey holds the current snapshot generation. Snapshot keys
// embed it, so deleting it orphans every cached radius at once.
const clusterGenerationKey = "clusters:generation"

var generationSeq atomic.Uint64

func clusterCacheKey(generation string, radiusMeters float64) string {
	return "clusters:" + generation + ":" + strconv.FormatFloat(radiusMeters, 'f', -1, 64)
}

// generation returns the current snapshot generation, starting a new one when
// none is stored.
func (s *ClusterService) generation(ctx context.Context) (string, error) {
	if data, err := s.cache.Get(ctx, clusterGenerationKey); err == nil && len(data) > 0 {
		return string(data), nil
	}
	gen := strconv.FormatInt(s.now().UnixNano(), 36) + "." + strconv.FormatUint(generationSeq.Add(1), 36)
	if err := s.cache.Set(ctx, clusterGenerationKey, []byte(gen), 0); err != nil {
		return "", err
	}
	return gen, nil
}

// Invalidate drops every cached snapshot. It must be called after the set of
// located images changes.
func (s *ClusterService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, clusterGenerationKey); err != nil {
		return fmt.Errorf("invalidate clusters: %w", err)
	}
	return nil
}

// Recompute clusters every located image from scratch, caches the snapshot
// and announces it. An invalid radius yields domain.ErrInvalidArgument.
func (s *ClusterService) Recompute(ctx context.Context, radiusMeters float64) (*domain.ClusterSnapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanClusterRecompute)
	defer span.End()
	span.SetAttributes(attribute.Float64(telemetry.AttrRadiusMeters, radiusMeters))

	start := time.Now()
	fail := func(err error) (*domain.ClusterSnapshot, error) {
		metrics.ClusteringRuns.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Generation is read before the fixes; an invalidation in between
	// strands this result under a dead key.
	var gen string
	if s.cache != nil {
		g, err := s.generation(ctx)
		if err != nil {
			slog.WarnContext(ctx, "cluster cache generation unavailable", "error", err)
		}
		gen = g
	}

	fixes, err := s.images.LocatedFixes(ctx)
	if err != nil {
		return fail(fmt.Errorf("load located fixes: %w", err))
	}

	clusters, err := clustering.ClusterFixes(fixes, radiusMeters)
	if err != nil {
		return fail(err)
	}

	snap := &domain.ClusterSnapshot{
		RadiusMeters: radiusMeters,
		ComputedAt:   s.now().UTC(),
		Inputs:       len(fixes),
		Clusters:     clusters,
	}

	metrics.ClusteringRuns.WithLabelValues("ok").Inc()
	metrics.ClusteringDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int(telemetry.AttrInputs, len(fixes)),
		attribute.Int(telemetry.AttrClusters, len(clusters)),
	)
	slog.InfoContext(ctx, "clusters recomputed", "radius_meters", radiusMeters, "inputs", len(fixes), "clusters", len(clusters))

	if gen != "" {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, clusterCacheKey(gen, radiusMeters), data, s.ttl); err != nil {
				slog.WarnContext(ctx, "cache clusters failed", "error", err)
			}
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishClusters(ctx, snap); err != nil {
			slog.WarnContext(ctx, "publish clusters failed", "error", err)
		}
	}

	return snap, nil
}

// Get returns the cached snapshot for radiusMeters, recomputing on a miss.
func (s *ClusterService) Get(ctx context.Context, radiusMeters float64) (*domain.ClusterSnapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanClusterGet)
	defer span.End()

	if s.cache != nil {
		gen, err := s.generation(ctx)
		if err != nil {
			slog.WarnContext(ctx, "cluster cache generation unavailable", "error", err)
		} else if data, err := s.cache.Get(ctx, clusterCacheKey(gen, radiusMeters)); err == nil {
			var snap domain.ClusterSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				metrics.CacheHits.WithLabelValues("clusters").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return &snap, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("clusters").Inc()
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	return s.Recompute(ctx, radiusMeters)
}
