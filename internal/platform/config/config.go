// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	AWS        AWSConfig        `koanf:"aws"`
	Repository RepositoryConfig `koanf:"repository"`
	FileStore  FileStoreConfig  `koanf:"filestore"`
	Health     HealthConfig     `koanf:"health"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AWSConfig holds settings shared by all AWS-backed adapters. Endpoint is an
// optional override for local stacks (DynamoDB Local, LocalStack); empty
// means the SDK's default endpoint resolution. MaxAttempts bounds the SDK's
// per-call retries; this is the only place retry policy lives.
type AWSConfig struct {
	Region         string               `koanf:"region"`
	Endpoint       string               `koanf:"endpoint"`
	MaxAttempts    int                  `koanf:"max_attempts"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig holds circuit breaker settings for backend calls.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// RepositoryConfig selects and parameterizes the user repository backend.
// Backend is validated by the factory, which is the single authority on
// known backend types.
type RepositoryConfig struct {
	Backend string `koanf:"backend"`
	Table   string `koanf:"table"`
}

// FileStoreConfig selects and parameterizes the object-store backend.
type FileStoreConfig struct {
	Backend string `koanf:"backend"`
	Bucket  string `koanf:"bucket"`
}

// HealthConfig holds health aggregation settings. ProbeTimeout bounds each
// individual liveness probe; it is also the wall-clock bound of a full
// readiness check because probes run concurrently.
type HealthConfig struct {
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
