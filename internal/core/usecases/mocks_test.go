package usecases_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/samirrijal/waypoint/internal/core/domain"
)

// --- Mock FixRepository ---

type mockFixRepo struct {
	insertFn func(ctx context.Context, fix *domain.GeoFix) error
	listFn   func(ctx context.Context, limit, offset int) ([]domain.GeoFix, error)
	countFn  func(ctx context.Context) (int, error)
}

func (m *mockFixRepo) Insert(ctx context.Context, fix *domain.GeoFix) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, fix)
	}
	return nil
}

func (m *mockFixRepo) List(ctx context.Context, limit, offset int) ([]domain.GeoFix, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockFixRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- In-memory ImageRepository ---

type memImageRepo struct {
	mu      sync.Mutex
	images  []domain.ProcessedImage
	saveErr error
}

func (m *memImageRepo) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.images {
		if img.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memImageRepo) Save(ctx context.Context, img *domain.ProcessedImage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, *img)
	return nil
}

func (m *memImageRepo) List(ctx context.Context, limit, offset int) ([]domain.ProcessedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.images) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.images) {
		end = len(m.images)
	}
	return append([]domain.ProcessedImage(nil), m.images[offset:end]...), nil
}

func (m *memImageRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images), nil
}

func (m *memImageRepo) LocatedFixes(ctx context.Context) ([]domain.GeoFix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GeoFix
	for _, img := range m.images {
		if img.Located && img.Fix != nil {
			out = append(out, *img.Fix)
		}
	}
	return out, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	fixes    []*domain.GeoFix
	images   []*domain.ProcessedImage
	clusters []*domain.ClusterSnapshot
	err      error
}

func (m *mockPublisher) PublishFix(ctx context.Context, fix *domain.GeoFix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixes = append(m.fixes, fix)
	return m.err
}

func (m *mockPublisher) PublishImage(ctx context.Context, img *domain.ProcessedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, img)
	return m.err
}

func (m *mockPublisher) PublishClusters(ctx context.Context, snap *domain.ClusterSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters = append(m.clusters, snap)
	return m.err
}

// --- In-memory CacheService ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), sets: make(map[string]int)}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets[key]++
	return nil
}

// snapshotSets counts writes of cluster snapshots, ignoring the generation key.
func (m *memCache) snapshotSets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, c := range m.sets {
		if strings.HasPrefix(key, "clusters:") && key != "clusters:generation" {
			n += c
		}
	}
	return n
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock ExifReader ---

type mockExifReader struct {
	readFn func(r io.Reader) (map[uint16]any, error)
}

func (m *mockExifReader) ReadGPS(r io.Reader) (map[uint16]any, error) {
	if m.readFn != nil {
		return m.readFn(r)
	}
	return map[uint16]any{}, nil
}

// gpsBlock returns a valid raw GPS block at lat/lon given as whole degrees,
// minutes and hundredths of seconds.
func gpsBlock(latRef string, lat [3]int64, lonRef string, lon [3]int64) map[uint16]any {
	return map[uint16]any{
		domain.GPSTagLatitudeRef:  latRef,
		domain.GPSTagLatitude:     [][2]int64{{lat[0], 1}, {lat[1], 1}, {lat[2], 100}},
		domain.GPSTagLongitudeRef: lonRef,
		domain.GPSTagLongitude:    [][2]int64{{lon[0], 1}, {lon[1], 1}, {lon[2], 100}},
		domain.GPSTagAltitude:     [2]int64{3259, 1},
		domain.GPSTagTimeStamp:    [][2]int64{{15, 1}, {29, 1}, {10, 1}},
		domain.GPSTagDateStamp:    "2017:07:12",
	}
}
