// Command ingestor runs every JPEG in a directory through GPS extraction
// and, when new photos were located, recomputes the cluster snapshot.
//
// Usage: ingestor [dir]
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	exifadapter "github.com/samirrijal/waypoint/internal/adapters/exif"
	natsadapter "github.com/samirrijal/waypoint/internal/adapters/nats"
	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/adapters/valkey"
	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/ports"
	"github.com/samirrijal/waypoint/internal/core/usecases"
	"github.com/samirrijal/waypoint/internal/pkg/config"
	"github.com/samirrijal/waypoint/internal/pkg/logging"
	"github.com/samirrijal/waypoint/internal/pkg/metrics"
)

type tally struct {
	located, unlocated, skipped, failed atomic.Int64
}

func main() {
	cfg, err := config.Load("waypoint-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	dir := cfg.Images.Dir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.InboundSubject); err != nil {
		slog.Warn("nats unavailable, events will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	imageRepo := postgres.NewImageRepo(db)
	clusters := usecases.NewClusterService(imageRepo, cacheSvc, publisher, cfg.Clustering.CacheTTL)
	images := usecases.NewImageService(imageRepo, exifadapter.NewReader(), publisher, clusters)

	paths, err := findImages(dir)
	if err != nil {
		log.Fatalf("scan %s: %v", dir, err)
	}
	slog.Info("ingesting images", "dir", dir, "count", len(paths), "workers", cfg.Images.Workers)

	var (
		wg  sync.WaitGroup
		t   tally
		sem = make(chan struct{}, cfg.Images.Workers)
	)
	for _, p := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ingestOne(ctx, images, path, &t)
		}(p)
	}
	wg.Wait()

	slog.Info("ingestion complete",
		"located", t.located.Load(),
		"unlocated", t.unlocated.Load(),
		"skipped", t.skipped.Load(),
		"failed", t.failed.Load(),
	)

	if t.located.Load() == 0 {
		return
	}
	snap, err := clusters.Recompute(ctx, cfg.Clustering.RadiusMeters)
	if err != nil {
		log.Fatalf("recompute clusters: %v", err)
	}
	metrics.ClustersCurrent.Set(float64(len(snap.Clusters)))
	slog.Info("clusters updated", "inputs", snap.Inputs, "clusters", len(snap.Clusters))
}

// findImages lists .jpg and .jpeg files under dir in lexical order.
func findImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg":
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func ingestOne(ctx context.Context, images *usecases.ImageService, path string, t *tally) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("open image", "path", path, "error", err)
		t.failed.Add(1)
		return
	}
	defer f.Close()

	img, err := images.ProcessImage(ctx, filepath.Base(path), f)
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		t.skipped.Add(1)
	case err != nil:
		slog.Error("process image", "path", path, "error", err)
		t.failed.Add(1)
	case img.Located:
		t.located.Add(1)
	default:
		t.unlocated.Add(1)
	}
}
