package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/parsing"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/pkg/metrics"
	"github.com/samirrijal/waypoint/internal/pkg/telemetry"
)

// TrackerService turns inbound tracker messages into stored fixes.
type TrackerService struct {
	fixes     ports.FixRepository
	publisher ports.EventPublisher
}

// NewTrackerService creates a new TrackerService. publisher may be nil.
func NewTrackerService(fixes ports.FixRepository, publisher ports.EventPublisher) *TrackerService {
	return &TrackerService{fixes: fixes, publisher: publisher}
}

// Ingest parses one raw message, stores the fix and announces it.
// A message that does not match the grammar is dropped and the returned
// error wraps domain.ErrMalformedMessage.
func (s *TrackerService) Ingest(ctx context.Context, text string) (*domain.GeoFix, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTrackerIngest)
	defer span.End()

	fix, err := parsing.ParseTrackerMessage(text)
	if err != nil {
		metrics.TrackerMessages.WithLabelValues("rejected").Inc()
		span.SetAttributes(attribute.String(telemetry.AttrOutcome, "rejected"))
		slog.InfoContext(ctx, "tracker message rejected", "error", err, "length", len(text))
		return nil, err
	}

	if err := s.fixes.Insert(ctx, fix); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert fix")
		return nil, fmt.Errorf("insert fix: %w", err)
	}
	metrics.TrackerMessages.WithLabelValues("accepted").Inc()
	span.SetAttributes(
		attribute.String(telemetry.AttrOutcome, "accepted"),
		attribute.String(telemetry.AttrFixID, fix.ID),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishFix(ctx, fix); err != nil {
			slog.WarnContext(ctx, "publish fix failed", "fix_id", fix.ID, "error", err)
		}
	}

	return fix, nil
}

// HandleInbound is the broker callback for raw tracker messages. Malformed
// messages are acknowledged and dropped; only storage failures are returned
// so the broker redelivers.
func (s *TrackerService) HandleInbound(ctx context.Context, text string) error {
	_, err := s.Ingest(ctx, text)
	if errors.Is(err, domain.ErrMalformedMessage) {
		return nil
	}
	return err
}

// List returns stored fixes oldest first, with the total count.
func (s *TrackerService) List(ctx context.Context, limit, offset int) ([]domain.GeoFix, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.fixes.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count fixes: %w", err)
	}
	fixes, err := s.fixes.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list fixes: %w", err)
	}
	return fixes, total, nil
}
