package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/adapters/valkey"
	"github.com/samirrijal/waypoint/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Tracker  *usecases.TrackerService
	Images   *usecases.ImageService
	Clusters *usecases.ClusterService

	// DefaultRadius is used by cluster queries that omit ?radius=.
	DefaultRadius float64
	// OpenAPIPath is served at /docs/openapi.yaml.
	OpenAPIPath string
	Version     string

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
