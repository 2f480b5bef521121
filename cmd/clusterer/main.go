// Command clusterer runs the Temporal worker for periodic reclustering and
// makes sure the recluster workflow is running.
package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/waypoint/internal/adapters/nats"
	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/adapters/valkey"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/core/usecases"
	"github.com/samirrijal/waypoint/internal/pkg/config"
	"github.com/samirrijal/waypoint/internal/pkg/logging"
	"github.com/samirrijal/waypoint/internal/workflows"
)

func main() {
	cfg, err := config.Load("waypoint-clusterer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.InboundSubject); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReclusterWorkflow)
	w.RegisterActivity(&workflows.ReclusterActivities{
		Clusters: usecases.NewClusterService(postgres.NewImageRepo(db), cacheSvc, publisher, cfg.Clustering.CacheTTL),
	})

	// Returns the existing run when the workflow is already running.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.ReclusterWorkflowID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ReclusterWorkflow, workflows.ReclusterInput{
		RadiusMeters: cfg.Clustering.RadiusMeters,
		Interval:     cfg.Clustering.Interval,
	})
	if err != nil {
		log.Fatalf("start recluster workflow: %v", err)
	}
	slog.Info("recluster workflow running", "workflow_id", run.GetID(), "run_id", run.GetRunID(),
		"radius_meters", cfg.Clustering.RadiusMeters, "interval", cfg.Clustering.Interval)

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
