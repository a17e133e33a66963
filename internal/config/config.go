// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/neexbeast/saferoute/internal/routing"
)

// Config holds every setting the binaries need. Nothing reads the
// environment after Load returns.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	BearerToken string

	OpenWeatherAPIKey string
	OpenWeatherURL    string

	RoutingProvider string
	RoutingAPIKey   string
	RoutingURL      string
	ProviderTimeout time.Duration

	// MigrationsDir overrides the migrations compiled into the binary.
	MigrationsDir string

	LogLevel  string
	LogFormat string

	RateLimitPerMinute int

	HazardRetention time.Duration
	RouteRetention  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the environment. All problems are reported together.
func Load() (Config, error) {
	return load(os.Getenv)
}

// LoadFrom reads settings through getenv instead of the process environment.
func LoadFrom(getenv func(string) string) (Config, error) {
	return load(getenv)
}

func load(getenv func(string) string) (Config, error) {
	var errs *multierror.Error

	required := func(key string) string {
		v := getenv(key)
		if v == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s is required", key))
		}
		return v
	}
	optional := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	duration := func(key string, fallback time.Duration) time.Duration {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return fallback
		}
		return d
	}
	integer := func(key string, fallback int) int {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: invalid positive integer %q", key, v))
			return fallback
		}
		return n
	}

	cfg := Config{
		Port:               optional("PORT", "8080"),
		DatabaseURL:        required("DATABASE_URL"),
		RedisURL:           required("REDIS_URL"),
		BearerToken:        required("BEARER_TOKEN"),
		OpenWeatherAPIKey:  getenv("OPENWEATHER_API_KEY"),
		OpenWeatherURL:     getenv("OPENWEATHER_URL"),
		RoutingProvider:    optional("ROUTING_PROVIDER", routing.ProviderOpenRouteService),
		RoutingAPIKey:      getenv("ROUTING_API_KEY"),
		RoutingURL:         getenv("ROUTING_URL"),
		ProviderTimeout:    duration("PROVIDER_TIMEOUT", 5*time.Second),
		MigrationsDir:      getenv("MIGRATIONS_DIR"),
		LogLevel:           optional("LOG_LEVEL", "info"),
		LogFormat:          optional("LOG_FORMAT", "json"),
		RateLimitPerMinute: integer("RATE_LIMIT_PER_MINUTE", 60),
		HazardRetention:    duration("HAZARD_RETENTION", 7*24*time.Hour),
		RouteRetention:     duration("ROUTE_RETENTION", 24*time.Hour),
		ShutdownTimeout:    duration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if !routing.ValidName(cfg.RoutingProvider) {
		errs = multierror.Append(errs, fmt.Errorf("ROUTING_PROVIDER: unknown provider %q", cfg.RoutingProvider))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
