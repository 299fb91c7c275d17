package config

import (
	"errors"
	"fmt"
)

// Validate checks all configuration values and returns aggregated errors.
// Backend type strings are only checked for presence here; the factory is
// the authority on which backend types exist.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.AWS.validate(),
		c.Repository.validate(),
		c.FileStore.validate(),
		c.Health.validate(),
		c.Telemetry.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (a *AWSConfig) validate() error {
	var errs []error

	if a.Region == "" {
		errs = append(errs, errors.New("aws.region must not be empty"))
	}
	if a.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("aws.max_attempts must be >= 1, got %d", a.MaxAttempts))
	}
	if a.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("aws.circuit_breaker.max_failures must be >= 1, got %d",
			a.CircuitBreaker.MaxFailures))
	}

	return errors.Join(errs...)
}

func (r *RepositoryConfig) validate() error {
	var errs []error

	if r.Backend == "" {
		errs = append(errs, errors.New("repository.backend must not be empty"))
	}
	if r.Backend == "dynamodb" && r.Table == "" {
		errs = append(errs, errors.New("repository.table must not be empty for the dynamodb backend"))
	}

	return errors.Join(errs...)
}

func (f *FileStoreConfig) validate() error {
	var errs []error

	if f.Backend == "" {
		errs = append(errs, errors.New("filestore.backend must not be empty"))
	}
	if f.Backend == "s3" && f.Bucket == "" {
		errs = append(errs, errors.New("filestore.bucket must not be empty for the s3 backend"))
	}

	return errors.Join(errs...)
}

func (h *HealthConfig) validate() error {
	if h.ProbeTimeout <= 0 {
		return errors.New("health.probe_timeout must be positive")
	}
	return nil
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}
