package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Data    DataConfig
	Graph   GraphConfig
	Routing RoutingConfig
	Cache   CacheConfig
	History HistoryConfig
	Demo    DemoConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	RateLimitPerSec   float64
	RateLimitBurst    int
}

// DataConfig selects where the corridor network is loaded from.
type DataConfig struct {
	// Source is either "file" or "graph".
	Source string
	// Dir holds jurisdictions.json and corridors.json for the file source.
	Dir string
	// LoadTimeout bounds a single network snapshot load.
	LoadTimeout time.Duration
}

// GraphConfig describes connectivity to the graph database (Neptune/Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// RoutingConfig bounds the routing computation.
type RoutingConfig struct {
	// MaxHopsCeiling caps max_hops regardless of what the caller requests.
	// Enumeration is exponential in hop count, so this stays small.
	MaxHopsCeiling int
	DefaultMaxHops int
	DefaultTopK    int
	// ScoreWorkers sizes the per-request candidate scoring pool.
	ScoreWorkers int
}

// CacheConfig controls the per-request route set cache.
type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// HistoryConfig controls the bounded scenario log.
type HistoryConfig struct {
	Enabled  bool
	Path     string
	Capacity int
}

// DemoConfig fixes the scenario behind the comparison dashboard endpoint.
type DemoConfig struct {
	Source      string
	Destination string
	Amount      float64
	Currency    string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRatePerSec      = 25.0
	defaultRateBurst       = 50

	defaultDataSource  = "file"
	defaultDataDir     = "./seed-data"
	defaultLoadTimeout = 15 * time.Second

	defaultMaxHopsCeiling = 4
	defaultMaxHops        = 3
	defaultTopK           = 3
	defaultScoreWorkers   = 4

	defaultCacheTTL     = 5 * time.Minute
	defaultCacheCleanup = 10 * time.Minute

	defaultHistoryPath     = "./data/history.db"
	defaultHistoryCapacity = 10

	defaultDemoSource      = "IN"
	defaultDemoDestination = "US"
	defaultDemoAmount      = 1_000_000
	defaultDemoCurrency    = "USD"

	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
)

// Load reads configuration from the environment, applying defaults. A .env
// file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			RateLimitPerSec: parseFloatWithDefault("SERVER_RATE_LIMIT_PER_SEC", defaultRatePerSec),
			RateLimitBurst:  parseIntWithDefault("SERVER_RATE_LIMIT_BURST", defaultRateBurst),
		},
		Data: DataConfig{
			Source:      valueOrDefault("DATA_SOURCE", defaultDataSource),
			Dir:         valueOrDefault("DATA_DIR", defaultDataDir),
			LoadTimeout: defaultLoadTimeout,
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Routing: RoutingConfig{
			MaxHopsCeiling: parseIntWithDefault("ROUTING_MAX_HOPS_CEILING", defaultMaxHopsCeiling),
			DefaultMaxHops: parseIntWithDefault("ROUTING_DEFAULT_MAX_HOPS", defaultMaxHops),
			DefaultTopK:    parseIntWithDefault("ROUTING_DEFAULT_TOP_K", defaultTopK),
			ScoreWorkers:   parseIntWithDefault("ROUTING_SCORE_WORKERS", defaultScoreWorkers),
		},
		Cache: CacheConfig{
			Enabled:         parseBoolWithDefault("CACHE_ENABLED", true),
			TTL:             defaultCacheTTL,
			CleanupInterval: defaultCacheCleanup,
		},
		History: HistoryConfig{
			Enabled:  parseBoolWithDefault("HISTORY_ENABLED", true),
			Path:     valueOrDefault("HISTORY_PATH", defaultHistoryPath),
			Capacity: parseIntWithDefault("HISTORY_CAPACITY", defaultHistoryCapacity),
		},
		Demo: DemoConfig{
			Source:      valueOrDefault("DEMO_SOURCE", defaultDemoSource),
			Destination: valueOrDefault("DEMO_DESTINATION", defaultDemoDestination),
			Amount:      parseFloatWithDefault("DEMO_AMOUNT", defaultDemoAmount),
			Currency:    valueOrDefault("DEMO_CURRENCY", defaultDemoCurrency),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	for _, d := range []struct {
		env    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"DATA_LOAD_TIMEOUT", &cfg.Data.LoadTimeout},
		{"CACHE_TTL", &cfg.Cache.TTL},
		{"CACHE_CLEANUP_INTERVAL", &cfg.Cache.CleanupInterval},
	} {
		if v := os.Getenv(d.env); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.env, err)
			}
			*d.target = parsed
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	if cfg.Data.Source != "file" && cfg.Data.Source != "graph" {
		return Config{}, fmt.Errorf("invalid DATA_SOURCE %q: must be file or graph", cfg.Data.Source)
	}
	if cfg.Data.Source == "graph" && cfg.Graph.URI == "" {
		return Config{}, fmt.Errorf("GRAPH_URI is required when DATA_SOURCE=graph")
	}
	if cfg.Routing.MaxHopsCeiling < 1 {
		return Config{}, fmt.Errorf("ROUTING_MAX_HOPS_CEILING must be at least 1")
	}
	if cfg.Routing.DefaultMaxHops < 1 || cfg.Routing.DefaultMaxHops > cfg.Routing.MaxHopsCeiling {
		return Config{}, fmt.Errorf("ROUTING_DEFAULT_MAX_HOPS must be within [1, %d]", cfg.Routing.MaxHopsCeiling)
	}
	if cfg.History.Capacity < 1 {
		return Config{}, fmt.Errorf("HISTORY_CAPACITY must be at least 1")
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
