package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/parsing"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/pkg/metrics"
	"github.com/samirrijal/waypoint/internal/pkg/telemetry"
)

// ImageService runs photos through GPS extraction and records the result.
type ImageService struct {
	images    ports.ImageRepository
	reader    ports.ExifReader
	publisher ports.EventPublisher
	clusters  ports.ClusterInvalidator
	now       func() time.Time
}

// NewImageService creates a new ImageService. publisher and clusters may be
// nil; when set, clusters is invalidated after every located image.
func NewImageService(images ports.ImageRepository, reader ports.ExifReader, publisher ports.EventPublisher, clusters ports.ClusterInvalidator) *ImageService {
	return &ImageService{images: images, reader: reader, publisher: publisher, clusters: clusters, now: time.Now}
}

// ProcessImage reads the GPS block of an image and processes it. An image
// whose EXIF cannot be read is recorded as an unlocated placeholder.
func (s *ImageService) ProcessImage(ctx context.Context, name string, r io.Reader) (*domain.ProcessedImage, error) {
	if err := s.checkNew(ctx, name); err != nil {
		return nil, err
	}

	raw, err := s.reader.ReadGPS(r)
	if err != nil {
		slog.InfoContext(ctx, "exif unreadable", "image", name, "error", err)
		return s.record(ctx, &domain.ProcessedImage{Name: name, Reason: domain.ReasonUnreadableExif})
	}
	return s.process(ctx, name, raw)
}

// Process extracts a fix from a raw GPS tag dictionary and records the
// image. Images without a usable coordinate are stored as placeholders with
// Located false so they are never processed again. Names already processed
// yield domain.ErrAlreadyProcessed.
func (s *ImageService) Process(ctx context.Context, name string, raw map[uint16]any) (*domain.ProcessedImage, error) {
	if err := s.checkNew(ctx, name); err != nil {
		return nil, err
	}
	return s.process(ctx, name, raw)
}

func (s *ImageService) checkNew(ctx context.Context, name string) error {
	done, err := s.images.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	if done {
		metrics.ImagesProcessed.WithLabelValues("skipped").Inc()
		return fmt.Errorf("%w: %s", domain.ErrAlreadyProcessed, name)
	}
	return nil
}

func (s *ImageService) process(ctx context.Context, name string, raw map[uint16]any) (*domain.ProcessedImage, error) {
	img := &domain.ProcessedImage{Name: name}

	tags, err := parsing.GPSTagsFromMap(raw)
	if err == nil {
		img.Fix, err = parsing.ExtractExifGeo(name, tags)
	}

	switch {
	case err == nil:
		img.Located = true
	case errors.Is(err, domain.ErrNoGPSData):
		img.Reason = domain.ReasonNoGPSData
	case errors.Is(err, domain.ErrInvalidHemisphere):
		img.Reason = domain.ReasonInvalidHemisphere
	case errors.Is(err, domain.ErrMalformedGPS):
		img.Reason = domain.ReasonMalformedGPS
	default:
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	if !img.Located {
		slog.InfoContext(ctx, "image has no usable coordinate", "image", name, "reason", img.Reason, "error", err)
	}
	return s.record(ctx, img)
}

func (s *ImageService) record(ctx context.Context, img *domain.ProcessedImage) (*domain.ProcessedImage, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanImageProcess)
	defer span.End()

	outcome := "located"
	if !img.Located {
		outcome = img.Reason
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrSourceID, img.Name),
		attribute.String(telemetry.AttrOutcome, outcome),
	)

	img.ProcessedAt = s.now().UTC()
	if err := s.images.Save(ctx, img); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save image")
		return nil, fmt.Errorf("save image: %w", err)
	}
	metrics.ImagesProcessed.WithLabelValues(outcome).Inc()

	if img.Located && s.clusters != nil {
		if err := s.clusters.Invalidate(ctx); err != nil {
			slog.WarnContext(ctx, "invalidate clusters failed", "image", img.Name, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishImage(ctx, img); err != nil {
			slog.WarnContext(ctx, "publish image failed", "image", img.Name, "error", err)
		}
	}
	return img, nil
}

// List returns processed images in processing order, with the total count.
func (s *ImageService) List(ctx context.Context, limit, offset int) ([]domain.ProcessedImage, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.images.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}
	images, err := s.images.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	return images, total, nil
}
