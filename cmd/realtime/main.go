// Command realtime consumes raw tracker messages from NATS and stores the
// fixes they carry.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/waypoint/internal/adapters/nats"
	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/core/usecases"
	"github.com/samirrijal/waypoint/internal/pkg/config"
	"github.com/samirrijal/waypoint/internal/pkg/logging"
	"github.com/samirrijal/waypoint/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("waypoint-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// The publisher also declares the inbound stream the subscriber binds to.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.InboundSubject)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()
	var publisher ports.EventPublisher = pub

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.InboundSubject)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	tracker := usecases.NewTrackerService(postgres.NewFixRepo(db), publisher)
	if err := sub.SubscribeTrackerMessages(ctx, tracker.HandleInbound); err != nil {
		log.Fatalf("subscribe %s: %v", cfg.NATS.InboundSubject, err)
	}

	slog.Info("tracker consumer started", "subject", cfg.NATS.InboundSubject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down tracker consumer", "signal", sig.String())
}
