package dedup

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

// --- Mocks ---

type mockPageFetcher struct {
	pages    [][]domain.Record
	fetchErr error
	calls    int
}

func (m *mockPageFetcher) FetchPage(_ context.Context, offset, _ int) ([]domain.Record, int, error) {
	if m.fetchErr != nil {
		return nil, -1, m.fetchErr
	}
	m.calls++
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

type mockExcluder struct {
	ids map[string]struct{}
}

func (m *mockExcluder) Contains(id string) bool {
	_, ok := m.ids[id]
	return ok
}

// --- Tests ---

func TestServiceRun_PaginatesAndFiltersBlacklist(t *testing.T) {
	store := &mockStore{}
	engine := newTestEngine(store)

	fetcher := &mockPageFetcher{pages: [][]domain.Record{
		{storeRec(1, "City Hall", 48.8566, 2.3522), storeRec(2, "Harbor Lighthouse", 48.9, 2.4)},
		{storeRec(3, "Central Station", 48.95, 2.45), storeRec(4, "City Hall (annex)", 48.8570, 2.3525)},
	}}
	blacklist := &mockExcluder{ids: map[string]struct{}{domain.StoreID(2): {}}}

	svc := NewService(engine, fetcher, blacklist, zap.NewNop())
	out, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.calls != 2 {
		t.Errorf("want 2 page fetches, got %d", fetcher.calls)
	}
	// Records 1 and 4 collapse; 2 is blacklisted out; 3 survives alone.
	if out.Kept != 2 {
		t.Errorf("kept=%d, want 2", out.Kept)
	}
	if len(out.DeletedIDs) != 1 || out.DeletedIDs[0] != domain.StoreID(4) {
		t.Errorf("deleted=%v", out.DeletedIDs)
	}
}

func TestServiceRun_FetchErrorIsFatal(t *testing.T) {
	engine := newTestEngine(&mockStore{})
	fetcher := &mockPageFetcher{fetchErr: errors.New("store down")}

	svc := NewService(engine, fetcher, &mockExcluder{}, zap.NewNop())
	if _, err := svc.Run(context.Background(), false); err == nil {
		t.Fatal("expected error when the registry cannot be read")
	}
}
