package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/usecases"
	"github.com/samirrijal/waypoint/internal/pkg/metrics"
)

// ReclusterResult summarises one recompute for workflow history.
type ReclusterResult struct {
	Inputs   int
	Clusters int
}

// ReclusterActivities holds the activity implementations for the recluster workflow.
type ReclusterActivities struct {
	Clusters *usecases.ClusterService
}

// Recompute rebuilds and publishes the cluster snapshot for radiusMeters.
func (a *ReclusterActivities) Recompute(ctx context.Context, radiusMeters float64) (ReclusterResult, error) {
	snap, err := a.Clusters.Recompute(ctx, radiusMeters)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return ReclusterResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidArgument", err)
		}
		return ReclusterResult{}, fmt.Errorf("recompute clusters: %w", err)
	}
	metrics.ClustersCurrent.Set(float64(len(snap.Clusters)))
	return ReclusterResult{Inputs: snap.Inputs, Clusters: len(snap.Clusters)}, nil
}
