package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mapfold/poidex/internal/domain/score"
)

// Config holds the poidex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Scout     ScoutConfig     `yaml:"scout"`
	Places    PlacesConfig    `yaml:"places"`
	Matching  MatchingConfig  `yaml:"matching"`
	Scoring   score.Weights   `yaml:"scoring"`
	Search    SearchConfig    `yaml:"search"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds registry connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ScoutConfig holds generative lookup settings.
type ScoutConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	MaxCandidates int    `yaml:"max_candidates"`
}

// PlacesConfig holds the place directory / geocoding client settings.
type PlacesConfig struct {
	BaseURL    string `yaml:"base_url"`
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// MatchingConfig holds the duplicate matching thresholds. All values are
// empirically tuned and operator-adjustable.
type MatchingConfig struct {
	// Interactive policy (live search merges)
	MinSimilarity           float64 `yaml:"min_similarity"`
	InteractiveRadiusMeters float64 `yaml:"interactive_radius_meters"`

	// Batch policy (whole-registry maintenance)
	BatchRadiusMeters float64 `yaml:"batch_radius_meters"`
	BatchContainRatio float64 `yaml:"batch_contain_ratio"`

	// ExceptionGroups names clusters of genuinely distinct siblings that
	// must never be auto-merged; members match on base-name fragments.
	ExceptionGroups map[string][]string `yaml:"exception_groups"`
}

// SearchConfig holds orchestrator thresholds.
type SearchConfig struct {
	MinResults          int     `yaml:"min_results"`
	AcceptRadiusMeters  float64 `yaml:"accept_radius_meters"`
	DefaultRadiusMeters float64 `yaml:"default_radius_meters"`
	EnrichBatchSize     int     `yaml:"enrich_batch_size"`
}

// ReconcileConfig holds batch reconciliation settings.
type ReconcileConfig struct {
	// DeleteDelayMs is the politeness throttle between registry deletes.
	DeleteDelayMs int `yaml:"delete_delay_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Scout.Model == "" {
		c.Scout.Model = "gpt-4o-mini"
	}
	if c.Scout.MaxCandidates <= 0 {
		c.Scout.MaxCandidates = 10
	}
	if c.Places.UserAgent == "" {
		c.Places.UserAgent = "poidex"
	}
	if c.Places.TimeoutSec <= 0 {
		c.Places.TimeoutSec = 10
	}
	if c.Matching.MinSimilarity <= 0 {
		c.Matching.MinSimilarity = 0.6
	}
	if c.Matching.InteractiveRadiusMeters <= 0 {
		c.Matching.InteractiveRadiusMeters = 500
	}
	if c.Matching.BatchRadiusMeters <= 0 {
		c.Matching.BatchRadiusMeters = 10_000
	}
	if c.Matching.BatchContainRatio <= 0 {
		c.Matching.BatchContainRatio = 0.6
	}
	if c.Scoring == (score.Weights{}) {
		c.Scoring = score.Default()
	}
	if c.Search.MinResults <= 0 {
		c.Search.MinResults = 5
	}
	if c.Search.AcceptRadiusMeters <= 0 {
		c.Search.AcceptRadiusMeters = 50_000
	}
	if c.Search.DefaultRadiusMeters <= 0 {
		c.Search.DefaultRadiusMeters = 2_000
	}
	if c.Search.EnrichBatchSize <= 0 {
		c.Search.EnrichBatchSize = 20
	}
	if c.Reconcile.DeleteDelayMs <= 0 {
		c.Reconcile.DeleteDelayMs = 250
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Matching.MinSimilarity > 1 {
		return fmt.Errorf("matching.min_similarity must be in (0,1], got %g", c.Matching.MinSimilarity)
	}
	if c.Matching.BatchContainRatio > 1 {
		return fmt.Errorf("matching.batch_contain_ratio must be in (0,1], got %g", c.Matching.BatchContainRatio)
	}
	if c.Matching.InteractiveRadiusMeters > c.Matching.BatchRadiusMeters {
		return fmt.Errorf("matching.interactive_radius_meters exceeds matching.batch_radius_meters")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
