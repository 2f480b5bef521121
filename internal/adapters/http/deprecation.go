package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended alternative endpoint (optional)
}

// legacyTrackerRoute is the form-encoded endpoint old tracker relays still
// call.
var legacyTrackerRoute = DeprecatedRoute{
	SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
	Alternative: "/v1/fixes",
}

// DeprecationMiddleware adds Deprecation, Sunset, Link and Warning headers.
// Mount it on the deprecated route itself.
func DeprecationMiddleware(d DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// RFC 8594
		c.Set("Deprecation", "true")
		c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

		// RFC 8288
		if d.Alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}

		days := time.Until(d.SunsetDate).Hours() / 24
		if days < 0 {
			days = 0
		}
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

		return c.Next()
	}
}
