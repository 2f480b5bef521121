package http

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/waypoint/internal/core/domain"
)

// maxRadiusMeters bounds cluster queries; beyond this every fix on a
// continent links into a single cluster.
const maxRadiusMeters = 1_000_000

const radiusRangeMessage = "radius must be between 0 and 1000000 meters"

func radiusInRange(r float64) bool {
	return r > 0 && r <= maxRadiusMeters
}

// LegacyCoordinatesHandler accepts a raw tracker message in the form field
// "data" and answers with a plain-text OK or FAIL. A message that does not
// match the tracker grammar is a FAIL with status 200.
func LegacyCoordinatesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		text := c.FormValue("data")

		if _, err := deps.Tracker.Ingest(ctx, text); err != nil {
			if errors.Is(err, domain.ErrMalformedMessage) {
				return c.SendString("FAIL")
			}
			LoggerFromCtx(ctx).ErrorContext(ctx, "legacy tracker ingest failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString("FAIL")
		}
		return c.SendString("OK")
	}
}

type createFixRequest struct {
	Message string `json:"message"`
}

// CreateFixHandler parses and stores one tracker message.
func CreateFixHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createFixRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Message) == "" {
			return errBadRequest(c, "message is required")
		}

		fix, err := deps.Tracker.Ingest(c.UserContext(), req.Message)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedMessage) {
				return errUnprocessable(c, err.Error())
			}
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fix)
	}
}

// ListFixesHandler returns stored tracker fixes, oldest first.
func ListFixesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)

		fixes, total, err := deps.Tracker.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: fixes, Pagination: pg})
	}
}

// UploadImageHandler runs an uploaded photo (multipart field "image")
// through GPS extraction. The stored name is the upload's base file name.
func UploadImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return errBadRequest(c, "multipart field \"image\" is required")
		}
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) {
			return errBadRequest(c, "image file name is required")
		}

		f, err := fh.Open()
		if err != nil {
			return errBadRequest(c, "cannot read upload")
		}
		defer f.Close()

		img, err := deps.Images.ProcessImage(c.UserContext(), name, f)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyProcessed) {
				return errConflict(c, "image "+name+" was already processed")
			}
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(img)
	}
}

// ListImagesHandler returns processed images including placeholders.
func ListImagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)

		images, total, err := deps.Images.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: images, Pagination: pg})
	}
}

// ClustersHandler returns the cluster snapshot for ?radius= meters, falling
// back to the configured default radius.
func ClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		radius := deps.DefaultRadius
		if raw := c.Query("radius"); raw != "" {
			radius = c.QueryFloat("radius", -1)
		}
		if !radiusInRange(radius) {
			return errBadRequest(c, radiusRangeMessage)
		}

		snap, err := deps.Clusters.Get(c.UserContext(), radius)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(snap)
	}
}
