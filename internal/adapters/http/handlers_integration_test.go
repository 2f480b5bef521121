//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/waypoint/internal/adapters/http"
	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/usecases"
	"github.com/samirrijal/waypoint/internal/pkg/config"
)

// setupTestDB connects to the database named by the WAYPOINT_* settings.
// The schema from migrations/ must already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("waypoint-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB, reader *mockExifReader) *http.Dependencies {
	images := postgres.NewImageRepo(db)
	return &http.Dependencies{
		Tracker:       usecases.NewTrackerService(postgres.NewFixRepo(db), nil),
		Images:        usecases.NewImageService(images, reader, nil, nil),
		Clusters:      usecases.NewClusterService(images, nil, nil, 0),
		DefaultRadius: 100,
		DB:            db,
	}
}

// uniqueName keeps test rows from colliding across runs.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d.jpg", prefix, time.Now().UnixNano())
}

func TestCreateAndListFixes_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db, &mockExifReader{}))

	req := httptest.NewRequest("POST", "/v1/fixes", strings.NewReader(`{"message":`+mustJSON(t, pittsburgh)+`}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	var created domain.GeoFix
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/fixes?limit=500", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var result struct {
		Data []domain.GeoFix `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	for _, f := range result.Data {
		if f.ID == created.ID {
			if d := f.Latitude - created.Latitude; d > 1e-9 || d < -1e-9 {
				t.Errorf("latitude round trip: stored %v, read %v", created.Latitude, f.Latitude)
			}
			return
		}
	}
	t.Errorf("created fix %s not listed", created.ID)
}

func TestImagesAndClusters_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	reader := &mockExifReader{readFn: func(r io.Reader) (map[uint16]any, error) { return bilbaoGPS(), nil }}
	app := setupApp(setupTestDeps(t, db, reader))

	name := uniqueName("bilbao")
	for i, want := range []int{201, 409} {
		body, ctype := multipartImage(t, "image", name, []byte("jpeg"))
		req := httptest.NewRequest("POST", "/v1/images", body)
		req.Header.Set("Content-Type", ctype)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		if resp.StatusCode != want {
			t.Fatalf("upload %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/clusters?radius=50", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snap domain.ClusterSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, c := range snap.Clusters {
		for _, m := range c.Members {
			if m.SourceID == name {
				return
			}
		}
	}
	t.Errorf("uploaded image %s missing from clusters", name)
}
