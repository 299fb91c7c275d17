package config

const (
	defaultServerPort = 8080

	defaultAWSMaxAttempts = 3

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"aws.region":                          "us-east-1",
		"aws.endpoint":                        "",
		"aws.max_attempts":                    defaultAWSMaxAttempts,
		"aws.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"aws.circuit_breaker.timeout":         "30s",
		"aws.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"repository.backend": "dynamodb",
		"repository.table":   "users",

		"filestore.backend": "s3",
		"filestore.bucket":  "",

		"health.probe_timeout": "2s",

		"telemetry.enabled":  false,
		"telemetry.exporter": "stdout",
		"telemetry.endpoint": "",
	}
}
