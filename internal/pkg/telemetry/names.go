package telemetry

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/samirrijal/waypoint"

// Span names.
const (
	SpanTrackerIngest    = "tracker.ingest"
	SpanImageProcess     = "image.process"
	SpanClusterRecompute = "clusters.recompute"
	SpanClusterGet       = "clusters.get"
)

// Span attribute keys.
const (
	AttrSourceID     = "waypoint.source_id"
	AttrFixID        = "waypoint.fix_id"
	AttrOutcome      = "waypoint.outcome"
	AttrRadiusMeters = "waypoint.radius_meters"
	AttrInputs       = "waypoint.inputs"
	AttrClusters     = "waypoint.clusters"
	AttrCacheHit     = "waypoint.cache_hit"
)
