package config

import (
	"testing"

	"github.com/mapfold/poidex/internal/domain/score"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_SimilarityAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Matching.MinSimilarity = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for similarity above 1")
	}
}

func TestValidate_ContainRatioAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Matching.BatchContainRatio = 2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for contain ratio above 1")
	}
}

func TestValidate_InteractiveRadiusExceedsBatch(t *testing.T) {
	cfg := validConfig()
	cfg.Matching.InteractiveRadiusMeters = 20_000
	cfg.Matching.BatchRadiusMeters = 10_000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when the interactive radius exceeds the batch radius")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Matching.MinSimilarity != 0.6 {
		t.Errorf("min_similarity = %g, want 0.6", cfg.Matching.MinSimilarity)
	}
	if cfg.Matching.InteractiveRadiusMeters != 500 {
		t.Errorf("interactive_radius_meters = %g, want 500", cfg.Matching.InteractiveRadiusMeters)
	}
	if cfg.Matching.BatchRadiusMeters != 10_000 {
		t.Errorf("batch_radius_meters = %g, want 10000", cfg.Matching.BatchRadiusMeters)
	}
	if cfg.Matching.BatchContainRatio != 0.6 {
		t.Errorf("batch_contain_ratio = %g, want 0.6", cfg.Matching.BatchContainRatio)
	}
	if cfg.Scoring != score.Default() {
		t.Errorf("scoring = %+v, want defaults", cfg.Scoring)
	}
	if cfg.Search.MinResults != 5 {
		t.Errorf("min_results = %d, want 5", cfg.Search.MinResults)
	}
	if cfg.Search.AcceptRadiusMeters != 50_000 {
		t.Errorf("accept_radius_meters = %g, want 50000", cfg.Search.AcceptRadiusMeters)
	}
	if cfg.Search.DefaultRadiusMeters != 2_000 {
		t.Errorf("default_radius_meters = %g, want 2000", cfg.Search.DefaultRadiusMeters)
	}
	if cfg.Reconcile.DeleteDelayMs != 250 {
		t.Errorf("delete_delay_ms = %d, want 250", cfg.Reconcile.DeleteDelayMs)
	}
	if cfg.Scout.Model == "" {
		t.Error("scout model default missing")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := validConfig()
	cfg.Matching.MinSimilarity = 0.8
	cfg.Search.MinResults = 3
	cfg.Scoring = score.Weights{ExternalRef: 99}

	cfg.ApplyDefaults()

	if cfg.Matching.MinSimilarity != 0.8 {
		t.Errorf("explicit min_similarity overridden: %g", cfg.Matching.MinSimilarity)
	}
	if cfg.Search.MinResults != 3 {
		t.Errorf("explicit min_results overridden: %d", cfg.Search.MinResults)
	}
	if cfg.Scoring.ExternalRef != 99 {
		t.Errorf("explicit scoring overridden: %+v", cfg.Scoring)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POIDEX_TEST_VAR", "localhost:6379")

	got := string(expandEnvVars([]byte("addr: ${POIDEX_TEST_VAR}")))
	if got != "addr: localhost:6379" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	t.Setenv("POIDEX_UNSET_VAR", "")

	got := string(expandEnvVars([]byte("addr: ${POIDEX_UNSET_VAR:-fallback:6379}")))
	if got != "addr: fallback:6379" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_SetBeatsDefault(t *testing.T) {
	t.Setenv("POIDEX_SET_VAR", "explicit")

	got := string(expandEnvVars([]byte("v: ${POIDEX_SET_VAR:-fallback}")))
	if got != "v: explicit" {
		t.Errorf("got %q", got)
	}
}
