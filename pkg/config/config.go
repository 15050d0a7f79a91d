package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request RequestConfig `yaml:"request"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Geo     GeoConfig     `yaml:"geo"`
	Places  PlacesConfig  `yaml:"places"`
	LLM     LLMConfig     `yaml:"llm"`
	Engine  EngineConfig  `yaml:"engine"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`

	// CacheTTL bounds cached provider responses (place details in
	// particular). Pools age by calendar month and are unaffected.
	CacheTTL Duration `yaml:"cache_ttl"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`

	// Retention drops cache rows older than this regardless of expiry,
	// bounding growth of the no-expiry pool entries. 0 disables it.
	Retention Duration `yaml:"retention"`
}

// GeoConfig holds settings for the city/zip reference dataset.
type GeoConfig struct {
	DatasetPath string `yaml:"dataset_path"`
}

// PlacesConfig holds settings for the place-search provider.
type PlacesConfig struct {
	Key          string `yaml:"key"`           // API key (env fallback: GOOGLE_PLACES_API_KEY)
	MaxResults   int    `yaml:"max_results"`   // per query
	RadiusMeters int    `yaml:"radius_meters"` // search bias radius per anchor
}

// LLMConfig holds settings for the city-description LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "gemini" (default)
	Model    string `yaml:"model"`
	Key      string `yaml:"key"` // env fallback: GEMINI_API_KEY
}

// EngineConfig holds tuning knobs for the aggregation engine.
type EngineConfig struct {
	DisplayCount   int     `yaml:"display_count"`    // entries per rendered category list
	HydrateCount   int     `yaml:"hydrate_count"`    // sampled places hydrated with details
	MaxPoolSize    int     `yaml:"max_pool_size"`    // pool cap before write
	MaxDistanceKm  float64 `yaml:"max_distance_km"`  // outlier filter
	DistanceCapKm  float64 `yaml:"distance_cap_km"`  // cap inside the rank score
	DistanceWeight float64 `yaml:"distance_weight"`  // rank score distance penalty
	MinRating      float64 `yaml:"min_rating"`       // global quality floor
	MinReviews     int     `yaml:"min_reviews"`      // global quality floor
	SeasonalLimit  int     `yaml:"seasonal_limit"`   // categories with seasonal phrasing per month
	AnchorOffsetKm float64 `yaml:"anchor_offset_km"` // spread of the anchor grid

	AudienceDeltaTTL Duration `yaml:"audience_delta_ttl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(60 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
			CacheTTL: Duration(12 * time.Hour),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/communityscout.db",
			// Pools age by calendar month; anything past two full months is
			// dead weight.
			Retention: Duration(9 * Week),
		},
		Geo: GeoConfig{
			DatasetPath: "./data/uszips.csv",
		},
		Places: PlacesConfig{
			MaxResults:   20,
			RadiusMeters: 8000,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash-lite",
		},
		Engine: EngineConfig{
			DisplayCount:     5,
			HydrateCount:     3,
			MaxPoolSize:      60,
			MaxDistanceKm:    40.0,
			DistanceCapKm:    15.0,
			DistanceWeight:   0.5,
			MinRating:        4.0,
			MinReviews:       25,
			SeasonalLimit:    4,
			AnchorOffsetKm:   3.0,
			AudienceDeltaTTL: Duration(12 * time.Hour),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, defaults are merged with existing values but the file
// is not rewritten, preserving user formatting and comments.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnvFallbacks(cfg)
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

// applyEnvFallbacks fills API keys from the environment when the config file
// leaves them empty. Keys are never written back to disk.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Places.Key == "" {
		if key := os.Getenv("GOOGLE_PLACES_API_KEY"); key != "" {
			cfg.Places.Key = key
		}
	}
	if cfg.LLM.Key == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			cfg.LLM.Key = key
		}
	}
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# communityscout configuration
# ----------------------------
# Duration units: ns, us, ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
