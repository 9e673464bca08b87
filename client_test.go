package poidex

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

func TestNew_RequiresAddress(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without database address")
	}
}

func TestOptions_Apply(t *testing.T) {
	cfg := defaultClientConfig()
	for _, o := range []Option{
		WithRedis("localhost:6379", "secret"),
		WithScout("sk-test", "gpt-4o"),
		WithPlaces("https://nominatim.example", "poidex-test/1.0"),
		WithMatching(0.8, 300),
		WithSearchTuning(3, 40_000, 1_500),
		WithDeleteDelay(100 * time.Millisecond),
		WithLogger(zap.NewNop()),
	} {
		o(cfg)
	}

	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("unexpected database config: %v %q", cfg.addrs, cfg.password)
	}
	if cfg.scoutAPIKey != "sk-test" || cfg.scoutModel != "gpt-4o" {
		t.Errorf("unexpected scout config: %q %q", cfg.scoutAPIKey, cfg.scoutModel)
	}
	if cfg.placesBaseURL != "https://nominatim.example" {
		t.Errorf("unexpected places base URL: %q", cfg.placesBaseURL)
	}
	if cfg.interactive.MinSimilarity != 0.8 || cfg.interactive.MaxDistanceMeters != 300 {
		t.Errorf("unexpected matching config: %+v", cfg.interactive)
	}
	if cfg.searchOpts.MinResults != 3 || cfg.searchOpts.AcceptRadiusMeters != 40_000 {
		t.Errorf("unexpected search tuning: %+v", cfg.searchOpts)
	}
	if cfg.deleteDelay != 100*time.Millisecond {
		t.Errorf("unexpected delete delay: %v", cfg.deleteDelay)
	}
}

func TestOptions_Defaults(t *testing.T) {
	cfg := defaultClientConfig()

	if cfg.scoutModel == "" {
		t.Error("default scout model missing")
	}
	if cfg.searchOpts.MinResults != 5 {
		t.Errorf("unexpected default min results: %d", cfg.searchOpts.MinResults)
	}
	if cfg.logger == nil {
		t.Error("default logger missing")
	}
}

func TestWithScout_EmptyModelKeepsDefault(t *testing.T) {
	cfg := defaultClientConfig()
	want := cfg.scoutModel

	WithScout("sk-test", "")(cfg)
	if cfg.scoutModel != want {
		t.Errorf("empty model overrode default: %q", cfg.scoutModel)
	}
}

func TestPlaceConversion_RoundTrip(t *testing.T) {
	rec := domain.Record{
		ID:              "store-7",
		Name:            "City Hall",
		Coordinates:     domain.Coordinates{Lat: 40.0, Lng: -74.0},
		LocationText:    "Main Square 1",
		City:            "Springfield",
		Country:         "US",
		Category:        "civic",
		Description:     "Seat of the city council",
		AttributionName: "J. Architect",
		ExternalRef:     "osm-123",
		ImageURL:        "https://img.example/1.jpg",
		MapURL:          "https://map.example/1",
		Provenance:      domain.ProvenanceStore,
		Prioritized:     true,
	}

	got := fromPlace(toPlace(rec))
	if got != rec {
		t.Errorf("round trip changed record:\n got  %+v\n want %+v", got, rec)
	}
}

func TestSearchBuilder_Accumulates(t *testing.T) {
	b := (&SearchBuilder{}).Near(34.77, 32.42).Km(2)

	if !b.hasAnchor || b.lat != 34.77 || b.lng != 32.42 {
		t.Errorf("unexpected anchor: %+v", b)
	}
	if b.radiusM != 2000 {
		t.Errorf("Km(2) should set 2000 meters, got %f", b.radiusM)
	}

	b = (&SearchBuilder{}).Query("old town paphos").RadiusMeters(500)
	if b.query != "old town paphos" || b.radiusM != 500 {
		t.Errorf("unexpected query builder state: %+v", b)
	}
}

func TestSearchBuilder_NeedsAnchorOrQuery(t *testing.T) {
	if _, err := (&SearchBuilder{}).Do(context.Background()); err == nil {
		t.Fatal("expected error without anchor or query")
	}
}
