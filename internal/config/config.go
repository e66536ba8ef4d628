package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the reunite API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	FaceAPI  FaceAPIConfig  `yaml:"face_api"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Matching MatchingConfig `yaml:"matching"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// FaceAPIConfig holds face embedding service settings.
type FaceAPIConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GeocoderConfig holds Nominatim settings. The usage policy requires a
// distinctive user agent.
type GeocoderConfig struct {
	BaseURL       string `yaml:"base_url"`
	UserAgent     string `yaml:"user_agent"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// SearchConfig holds the per-endpoint ranking knobs.
type SearchConfig struct {
	TopK            int     `yaml:"top_k"`
	ScaleKm         float64 `yaml:"scale_km"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	RadiusKm        float64 `yaml:"radius_km"`
	AgeWindowYears  int     `yaml:"age_window_years"`
}

// MatchingConfig holds the ranking pipeline settings.
type MatchingConfig struct {
	GeocodeConcurrency int          `yaml:"geocode_concurrency"`
	ResultHandleTTLMin int          `yaml:"result_handle_ttl_min"`
	Match              SearchConfig `yaml:"match"`
	Reverse            SearchConfig `yaml:"reverse"`
	Identify           SearchConfig `yaml:"identify"`
	Nearest            SearchConfig `yaml:"nearest"`
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. The search defaults
// mirror the distinct threshold sets the matching flows use: a tight
// identify flow (small scale, strict floor, single result) and wide
// reverse/nearest flows.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Ranking calls wait on geocoding fan-out, give them headroom.
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.FaceAPI.TimeoutSec <= 0 {
		c.FaceAPI.TimeoutSec = 30
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "reunite-matcher/1.0"
	}
	if c.Geocoder.TimeoutSec <= 0 {
		c.Geocoder.TimeoutSec = 10
	}
	if c.Geocoder.CacheTTLHours <= 0 {
		c.Geocoder.CacheTTLHours = 24 * 7
	}
	if c.Matching.GeocodeConcurrency <= 0 {
		c.Matching.GeocodeConcurrency = 4
	}
	if c.Matching.ResultHandleTTLMin <= 0 {
		c.Matching.ResultHandleTTLMin = 30
	}

	applySearchDefaults(&c.Matching.Match, SearchConfig{TopK: 5, ScaleKm: 100})
	applySearchDefaults(&c.Matching.Reverse, SearchConfig{TopK: 5, ScaleKm: 600, RadiusKm: 600, AgeWindowYears: 10})
	applySearchDefaults(&c.Matching.Identify, SearchConfig{TopK: 1, ScaleKm: 100, SimilarityFloor: 0.4})
	applySearchDefaults(&c.Matching.Nearest, SearchConfig{TopK: 3, ScaleKm: 100})
}

func applySearchDefaults(sc *SearchConfig, def SearchConfig) {
	if sc.TopK <= 0 {
		sc.TopK = def.TopK
	}
	if sc.ScaleKm <= 0 {
		sc.ScaleKm = def.ScaleKm
	}
	if sc.SimilarityFloor <= 0 {
		sc.SimilarityFloor = def.SimilarityFloor
	}
	if sc.RadiusKm <= 0 {
		sc.RadiusKm = def.RadiusKm
	}
	if sc.AgeWindowYears <= 0 {
		sc.AgeWindowYears = def.AgeWindowYears
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
	if c.FaceAPI.BaseURL == "" {
		return fmt.Errorf("face_api.base_url is required")
	}
	for name, sc := range map[string]SearchConfig{
		"match":    c.Matching.Match,
		"reverse":  c.Matching.Reverse,
		"identify": c.Matching.Identify,
		"nearest":  c.Matching.Nearest,
	} {
		if sc.SimilarityFloor < 0 || sc.SimilarityFloor > 1 {
			return fmt.Errorf("matching.%s.similarity_floor must be in [0, 1], got %v", name, sc.SimilarityFloor)
		}
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
