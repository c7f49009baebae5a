// Package config defines the global configuration structure for the weather
// API service. Configuration is loaded once at process initialization and is
// immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup, with one deliberate exception: the weather provider
// API key. A missing key degrades every fetch to a provider-authentication
// failure instead of preventing the process from serving reads.
package config

import (
	"time"

	"github.com/KaanIpek/weather-api/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Ingestion deduplication policies. See IngestConfig.Policy.
const (
	// IngestPolicyUpsert writes at most one observation per (city, date);
	// a later fetch for the same date refreshes the stored temperatures.
	IngestPolicyUpsert = "upsert"
	// IngestPolicyAppend preserves the legacy behavior of inserting a new
	// row on every fetch, accumulating duplicates for repeated dates.
	IngestPolicyAppend = "append"
)

// Config is the top-level configuration struct for the service. It is
// populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server tuning parameters.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`     // Fail fast when pool exhausted
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"` // Detect dead connections during failover
}

// ProviderConfig holds the outbound weather provider endpoint, credential,
// and resilience settings.
type ProviderConfig struct {
	// APIKey is intentionally not marked required: a missing credential must
	// degrade fetches to a provider-authentication failure, not crash startup.
	APIKey  SecretString  `envconfig:"WEATHER_API_KEY"`
	BaseURL string        `envconfig:"WEATHER_PROVIDER_URL" default:"https://api.openweathermap.org/data/2.5/forecast" validate:"required,url"`
	Timeout time.Duration `envconfig:"WEATHER_PROVIDER_TIMEOUT" default:"10s"`

	MaxRetries int           `envconfig:"WEATHER_PROVIDER_MAX_RETRIES" default:"2"`
	RetryMin   time.Duration `envconfig:"WEATHER_PROVIDER_RETRY_MIN" default:"500ms"`
	RetryMax   time.Duration `envconfig:"WEATHER_PROVIDER_RETRY_MAX" default:"5s"`
}

// IngestConfig holds ingestion behavior settings.
type IngestConfig struct {
	// Policy selects how repeated fetches for the same (city, date) are
	// stored. See the IngestPolicy constants.
	Policy string `envconfig:"INGEST_POLICY" default:"upsert" validate:"required,oneof=append upsert"`

	// BootstrapCities is the fixed list ingested once at startup and used to
	// seed the city registry.
	BootstrapCities []string `envconfig:"BOOTSTRAP_CITIES" default:"New Delhi,İstanbul,New York,Paris"`

	// StartupTimeout bounds the background startup ingestion run.
	StartupTimeout time.Duration `envconfig:"INGEST_STARTUP_TIMEOUT" default:"60s"`

	// Concurrency caps simultaneous per-city ingestion runs in IngestAll.
	Concurrency int `envconfig:"INGEST_CONCURRENCY" default:"4"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
