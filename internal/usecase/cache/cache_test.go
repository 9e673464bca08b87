package cache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

// --- Mocks ---

type mockFetcher struct {
	pages      [][]domain.Record
	near       []domain.Record
	nearErr    error
	nearCalls  int
	fetchErr   error
	fetchCalls int
}

func (m *mockFetcher) FetchPage(_ context.Context, offset, _ int) ([]domain.Record, int, error) {
	if m.fetchErr != nil {
		return nil, -1, m.fetchErr
	}
	m.fetchCalls++
	page := offset / 200
	if page >= len(m.pages) {
		return nil, -1, nil
	}
	next := offset + 200
	if page == len(m.pages)-1 {
		next = -1
	}
	return m.pages[page], next, nil
}

func (m *mockFetcher) FetchNear(_ context.Context, _ domain.Coordinates, _ float64) ([]domain.Record, error) {
	m.nearCalls++
	return m.near, m.nearErr
}

type mockExcluder struct {
	ids map[string]struct{}
}

func (m *mockExcluder) Contains(id string) bool {
	_, ok := m.ids[id]
	return ok
}

// appendMerger folds by exact ID only, enough for snapshot arithmetic.
type appendMerger struct{}

func (appendMerger) Merge(existing, incoming []domain.Record) []domain.Record {
	out := append([]domain.Record(nil), existing...)
	seen := make(map[string]struct{}, len(out))
	for _, r := range out {
		seen[r.ID] = struct{}{}
	}
	for _, r := range incoming {
		if _, ok := seen[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func rec(id, name string, lat, lng float64) domain.Record {
	return domain.Record{ID: id, Name: name, Coordinates: domain.Coordinates{Lat: lat, Lng: lng}}
}

func newTestCache(f *mockFetcher, bl *mockExcluder) *Cache {
	if bl == nil {
		bl = &mockExcluder{}
	}
	return New(f, bl, appendMerger{}, zap.NewNop())
}

// --- Tests ---

func TestLoad_PaginatesAndFiltersBlacklist(t *testing.T) {
	f := &mockFetcher{pages: [][]domain.Record{
		{rec("store-1", "A", 48.85, 2.35), rec("store-2", "B", 48.86, 2.36)},
		{rec("store-3", "C", 48.87, 2.37)},
	}}
	bl := &mockExcluder{ids: map[string]struct{}{"store-2": {}}}

	c := newTestCache(f, bl)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.fetchCalls != 2 {
		t.Errorf("want 2 pages, got %d", f.fetchCalls)
	}
	if c.Len() != 2 {
		t.Errorf("want 2 records after blacklist filter, got %d", c.Len())
	}
}

func TestNear_InvalidCenter(t *testing.T) {
	c := newTestCache(&mockFetcher{}, nil)
	if _, err := c.Near(context.Background(), domain.Coordinates{}, 1000); !errors.Is(err, domain.ErrInvalidCoordinates) {
		t.Fatalf("want ErrInvalidCoordinates, got %v", err)
	}
}

func TestNear_SnapshotHit(t *testing.T) {
	f := &mockFetcher{pages: [][]domain.Record{{
		rec("store-1", "Near", 48.8566, 2.3522),
		rec("store-2", "Far", 49.5, 3.0),
	}}}
	c := newTestCache(f, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	hits, err := c.Near(context.Background(), domain.Coordinates{Lat: 48.8566, Lng: 2.3522}, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "store-1" {
		t.Fatalf("want the near record only, got %v", hits)
	}
	if f.nearCalls != 0 {
		t.Error("snapshot hit must not reach the registry")
	}
}

func TestNear_SkipsInvalidCoordinates(t *testing.T) {
	f := &mockFetcher{pages: [][]domain.Record{{
		rec("store-1", "Sentinel", 0, 0),
		rec("store-2", "Near", 48.8566, 2.3522),
	}}}
	c := newTestCache(f, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	hits, err := c.Near(context.Background(), domain.Coordinates{Lat: 48.8566, Lng: 2.3522}, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, h := range hits {
		if h.ID == "store-1" {
			t.Error("record at the (0,0) sentinel served from Near")
		}
	}
}

func TestNear_FallbackWhenSnapshotEmpty(t *testing.T) {
	f := &mockFetcher{
		near: []domain.Record{rec("store-9", "Regional", 48.8566, 2.3522)},
	}
	c := newTestCache(f, nil)

	hits, err := c.Near(context.Background(), domain.Coordinates{Lat: 48.8566, Lng: 2.3522}, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "store-9" {
		t.Fatalf("want regional record, got %v", hits)
	}
	if f.nearCalls != 1 {
		t.Errorf("want 1 regional fetch, got %d", f.nearCalls)
	}
	// The regional result folds back into the snapshot.
	if c.Len() != 1 {
		t.Errorf("fold-back missing, snapshot len %d", c.Len())
	}
}

func TestNear_FallbackWhenRegionEmpty(t *testing.T) {
	f := &mockFetcher{
		pages: [][]domain.Record{{rec("store-1", "Elsewhere", 40.7, -74)}},
		near:  []domain.Record{rec("store-9", "Regional", 48.8566, 2.3522)},
	}
	c := newTestCache(f, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	hits, err := c.Near(context.Background(), domain.Coordinates{Lat: 48.8566, Lng: 2.3522}, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "store-9" {
		t.Fatalf("want regional record, got %v", hits)
	}
}

func TestNear_FallbackError(t *testing.T) {
	f := &mockFetcher{nearErr: errors.New("store down")}
	c := newTestCache(f, nil)

	if _, err := c.Near(context.Background(), domain.Coordinates{Lat: 48.85, Lng: 2.35}, 2000); err == nil {
		t.Fatal("expected regional fetch error to surface")
	}
}

func TestFold_FiltersBlacklist(t *testing.T) {
	bl := &mockExcluder{ids: map[string]struct{}{"store-2": {}}}
	c := newTestCache(&mockFetcher{}, bl)

	c.Fold([]domain.Record{
		rec("store-1", "A", 48.85, 2.35),
		rec("store-2", "B", 48.86, 2.36),
	})
	if c.Len() != 1 {
		t.Errorf("blacklisted record folded in, len %d", c.Len())
	}
}

func TestLoad_ErrorLeavesSnapshot(t *testing.T) {
	f := &mockFetcher{pages: [][]domain.Record{{rec("store-1", "A", 48.85, 2.35)}}}
	c := newTestCache(f, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	f.fetchErr = errors.New("store down")
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 1 {
		t.Errorf("failed reload clobbered the snapshot, len %d", c.Len())
	}
}
