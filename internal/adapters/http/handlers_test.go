package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/waypoint/internal/adapters/http"
	"github.com/samirrijal/waypoint/internal/core/domain"
	"github.com/samirrijal/waypoint/internal/core/usecases"
)

const pittsburgh = `Lat40deg26'46" Lon-79deg58'56" Alt+300 FT (0:07 ago) 12-Jul-2017 14:23:05 UTC`

// ---- Mock repositories ----

type mockFixRepo struct {
	mu    sync.Mutex
	fixes []domain.GeoFix
	err   error
}

func (m *mockFixRepo) Insert(ctx context.Context, f *domain.GeoFix) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = fmt.Sprintf("fix-%d", len(m.fixes)+1)
	m.fixes = append(m.fixes, *f)
	return nil
}

func (m *mockFixRepo) List(ctx context.Context, limit, offset int) ([]domain.GeoFix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.fixes) {
		return []domain.GeoFix{}, nil
	}
	end := offset + limit
	if end > len(m.fixes) {
		end = len(m.fixes)
	}
	return m.fixes[offset:end], nil
}

func (m *mockFixRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fixes), nil
}

type mockImageRepo struct {
	mu     sync.Mutex
	images []domain.ProcessedImage
}

func (m *mockImageRepo) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.images {
		if img.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockImageRepo) Save(ctx context.Context, img *domain.ProcessedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, *img)
	return nil
}

func (m *mockImageRepo) List(ctx context.Context, limit, offset int) ([]domain.ProcessedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.images) {
		return []domain.ProcessedImage{}, nil
	}
	end := offset + limit
	if end > len(m.images) {
		end = len(m.images)
	}
	return m.images[offset:end], nil
}

func (m *mockImageRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images), nil
}

func (m *mockImageRepo) LocatedFixes(ctx context.Context) ([]domain.GeoFix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GeoFix
	for _, img := range m.images {
		if img.Located {
			out = append(out, *img.Fix)
		}
	}
	return out, nil
}

type mockExifReader struct {
	readFn func(r io.Reader) (map[uint16]any, error)
}

func (m *mockExifReader) ReadGPS(r io.Reader) (map[uint16]any, error) {
	if m.readFn != nil {
		return m.readFn(r)
	}
	return map[uint16]any{}, nil
}

func bilbaoGPS() map[uint16]any {
	return map[uint16]any{
		domain.GPSTagLatitudeRef:  "N",
		domain.GPSTagLatitude:     [][2]int64{{43, 1}, {15, 1}, {4680, 100}},
		domain.GPSTagLongitudeRef: "W",
		domain.GPSTagLongitude:    [][2]int64{{2, 1}, {56, 1}, {600, 100}},
		domain.GPSTagAltitude:     [2]int64{19, 1},
		domain.GPSTagTimeStamp:    [][2]int64{{9, 1}, {30, 1}, {0, 1}},
		domain.GPSTagDateStamp:    "2024:05:01",
	}
}

func locatedAt(name string, lat, lon float64) domain.ProcessedImage {
	return domain.ProcessedImage{
		Name:    name,
		Located: true,
		Fix: &domain.GeoFix{
			Source: domain.SourcePhoto, SourceID: name,
			Latitude: lat, Longitude: lon,
			Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
	}
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

type fixture struct {
	fixes  *mockFixRepo
	images *mockImageRepo
	reader *mockExifReader
}

func makeDeps(opts ...func(*fixture)) *handler.Dependencies {
	f := &fixture{fixes: &mockFixRepo{}, images: &mockImageRepo{}, reader: &mockExifReader{}}
	for _, o := range opts {
		o(f)
	}
	return &handler.Dependencies{
		Tracker:       usecases.NewTrackerService(f.fixes, nil),
		Images:        usecases.NewImageService(f.images, f.reader, nil, nil),
		Clusters:      usecases.NewClusterService(f.images, nil, nil, 0),
		DefaultRadius: 100,
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

// ---- Legacy tracker endpoint ----

func TestLegacyCoordinates_OK(t *testing.T) {
	fixes := &mockFixRepo{}
	app := setupApp(makeDeps(func(f *fixture) { f.fixes = fixes }))

	form := url.Values{"data": {pittsburgh}}
	req := httptest.NewRequest("PUT", "/api/coordinates/v1.0/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); body != "OK" {
		t.Errorf("expected OK, got %q", body)
	}
	if len(fixes.fixes) != 1 {
		t.Fatalf("expected one stored fix, got %d", len(fixes.fixes))
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/fixes") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

func TestLegacyCoordinates_FAIL(t *testing.T) {
	fixes := &mockFixRepo{}
	app := setupApp(makeDeps(func(f *fixture) { f.fixes = fixes }))

	form := url.Values{"data": {"I'm OK, just checking in"}}
	req := httptest.NewRequest("PUT", "/api/coordinates/v1.0/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); body != "FAIL" {
		t.Errorf("expected FAIL, got %q", body)
	}
	if len(fixes.fixes) != 0 {
		t.Error("nothing should be stored")
	}
}

// ---- Fix endpoints ----

func TestCreateFix_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/fixes", strings.NewReader(`{"message":`+mustJSON(t, pittsburgh)+`}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var fix domain.GeoFix
	if err := json.NewDecoder(resp.Body).Decode(&fix); err != nil {
		t.Fatal(err)
	}
	if fix.ID != "fix-1" || fix.Source != domain.SourceTracker {
		t.Errorf("unexpected fix %+v", fix)
	}
	if fix.Longitude >= 0 {
		t.Errorf("expected western longitude, got %v", fix.Longitude)
	}
}

func TestCreateFix_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed message", `{"message":"Lat40deg"}`, 422, "unprocessable"},
		{"empty message", `{"message":"  "}`, 400, "bad_request"},
		{"invalid json", `{"message":`, 400, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(makeDeps())
			req := httptest.NewRequest("POST", "/v1/fixes", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var apiErr handler.APIError
			json.NewDecoder(resp.Body).Decode(&apiErr)
			if apiErr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, apiErr.Code)
			}
		})
	}
}

func TestCreateFix_StorageError(t *testing.T) {
	app := setupApp(makeDeps(func(f *fixture) { f.fixes.err = errors.New("db down") }))

	req := httptest.NewRequest("POST", "/v1/fixes", strings.NewReader(`{"message":`+mustJSON(t, pittsburgh)+`}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestListFixes_Pagination(t *testing.T) {
	fixes := &mockFixRepo{}
	for i := 0; i < 5; i++ {
		fixes.fixes = append(fixes.fixes, domain.GeoFix{ID: fmt.Sprintf("f%d", i), Source: domain.SourceTracker})
	}
	app := setupApp(makeDeps(func(f *fixture) { f.fixes = fixes }))

	req := httptest.NewRequest("GET", "/v1/fixes?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.GeoFix    `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	if len(result.Data) != 2 || result.Data[0].ID != "f2" {
		t.Errorf("unexpected page %+v", result.Data)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
}

// ---- Image endpoints ----

func TestUploadImage_Located(t *testing.T) {
	images := &mockImageRepo{}
	app := setupApp(makeDeps(func(f *fixture) {
		f.images = images
		f.reader.readFn = func(r io.Reader) (map[uint16]any, error) { return bilbaoGPS(), nil }
	}))

	body, ctype := multipartImage(t, "image", "uploads/IMG_0042.jpg", []byte("jpeg"))
	req := httptest.NewRequest("POST", "/v1/images", body)
	req.Header.Set("Content-Type", ctype)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var img domain.ProcessedImage
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil {
		t.Fatal(err)
	}
	if img.Name != "IMG_0042.jpg" {
		t.Errorf("expected base file name, got %q", img.Name)
	}
	if !img.Located || img.Fix == nil {
		t.Fatalf("expected located image, got %+v", img)
	}
	if img.Fix.Latitude < 43.2 || img.Fix.Latitude > 43.3 {
		t.Errorf("unexpected latitude %v", img.Fix.Latitude)
	}
}

func TestUploadImage_Duplicate(t *testing.T) {
	images := &mockImageRepo{images: []domain.ProcessedImage{{Name: "IMG_0042.jpg"}}}
	app := setupApp(makeDeps(func(f *fixture) { f.images = images }))

	body, ctype := multipartImage(t, "image", "IMG_0042.jpg", []byte("jpeg"))
	req := httptest.NewRequest("POST", "/v1/images", body)
	req.Header.Set("Content-Type", ctype)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestUploadImage_MissingField(t *testing.T) {
	app := setupApp(makeDeps())

	body, ctype := multipartImage(t, "photo", "IMG_0042.jpg", []byte("jpeg"))
	req := httptest.NewRequest("POST", "/v1/images", body)
	req.Header.Set("Content-Type", ctype)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListImages_IncludesPlaceholders(t *testing.T) {
	images := &mockImageRepo{images: []domain.ProcessedImage{
		locatedAt("a.jpg", 43.26, -2.93),
		{Name: "b.jpg", Reason: domain.ReasonNoGPSData},
	}}
	app := setupApp(makeDeps(func(f *fixture) { f.images = images }))

	req := httptest.NewRequest("GET", "/v1/images", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.ProcessedImage `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 images, got %d", len(result.Data))
	}
	if result.Data[1].Located || result.Data[1].Reason != domain.ReasonNoGPSData {
		t.Errorf("expected placeholder, got %+v", result.Data[1])
	}
}

// ---- Cluster endpoint ----

func TestClusters_DefaultAndExplicitRadius(t *testing.T) {
	images := &mockImageRepo{images: []domain.ProcessedImage{
		locatedAt("a.jpg", 43.2630, -2.9350),
		locatedAt("b.jpg", 43.2640, -2.9350), // ~111 m north of a
		locatedAt("c.jpg", 40.4168, -3.7038),
	}}
	app := setupApp(makeDeps(func(f *fixture) { f.images = images }))

	tests := []struct {
		query    string
		clusters int
	}{
		{"/v1/clusters", 3},
		{"/v1/clusters?radius=150", 2},
	}
	for _, tt := range tests {
		resp, _ := app.Test(httptest.NewRequest("GET", tt.query, nil), -1)
		if resp.StatusCode != 200 {
			t.Fatalf("%s: expected 200, got %d", tt.query, resp.StatusCode)
		}
		var snap domain.ClusterSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatal(err)
		}
		if len(snap.Clusters) != tt.clusters {
			t.Errorf("%s: expected %d clusters, got %d", tt.query, tt.clusters, len(snap.Clusters))
		}
		if snap.Inputs != 3 {
			t.Errorf("%s: expected 3 inputs, got %d", tt.query, snap.Inputs)
		}
	}
}

func TestClusters_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{"radius=0", "radius=-10", "radius=abc", "radius=5000000"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/clusters?"+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestClusters_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/clusters", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("expected ETag header")
	}
}

// ---- GraphQL ----

func TestGraphQL_ClustersRejectsRadiusOutOfRange(t *testing.T) {
	images := &mockImageRepo{images: []domain.ProcessedImage{locatedAt("a.jpg", 43.2630, -2.9350)}}
	app := setupApp(makeDeps(func(f *fixture) { f.images = images }))

	for _, radius := range []string{"5000000", "0", "-10"} {
		query := `{"query":"{ clusters(radius: ` + radius + `) { inputs } }"}`
		req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req, -1)

		var result struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatal(err)
		}
		if len(result.Errors) == 0 || !strings.Contains(result.Errors[0].Message, "radius must be between") {
			t.Errorf("radius %s: expected range error, got %+v", radius, result.Errors)
		}
	}
}

func TestGraphQL_Clusters(t *testing.T) {
	images := &mockImageRepo{images: []domain.ProcessedImage{
		locatedAt("a.jpg", 43.2630, -2.9350),
		locatedAt("b.jpg", 43.2631, -2.9351),
	}}
	app := setupApp(makeDeps(func(f *fixture) { f.images = images }))

	query := `{"query":"{ clusters(radius: 50) { inputs clusters { id center { lat lon } members { source_id } } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Clusters struct {
				Inputs   int `json:"inputs"`
				Clusters []struct {
					ID      int `json:"id"`
					Members []struct {
						SourceID string `json:"source_id"`
					} `json:"members"`
				} `json:"clusters"`
			} `json:"clusters"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	got := result.Data.Clusters
	if got.Inputs != 2 || len(got.Clusters) != 1 || got.Clusters[0].ID != 1 || len(got.Clusters[0].Members) != 2 {
		t.Errorf("unexpected clusters %+v", got)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// TestAccessLogMiddleware verifies structured access logging passes responses through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", body)
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
