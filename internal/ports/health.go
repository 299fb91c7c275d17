package ports

import "context"

// HealthChecker is implemented by any component that can report its health.
// Examples: the DynamoDB repository, the S3 file store.
type HealthChecker interface {
	// Name returns a human-readable identifier for this component
	// (e.g., "dynamodb", "s3").
	Name() string

	// HealthCheck performs the liveness probe and returns nil if healthy,
	// or an error describing the failure.
	// Implementations should respect context cancellation and deadlines.
	HealthCheck(ctx context.Context) error
}

// HealthStatus is the composite verdict over all monitored components.
type HealthStatus string

const (
	// StatusHealthy means every required probe reported reachable.
	StatusHealthy HealthStatus = "healthy"
	// StatusDegraded means some probe failed but at least one required
	// probe is still reachable.
	StatusDegraded HealthStatus = "degraded"
	// StatusUnhealthy means no required probe reported reachable.
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult records the outcome of one probe within a report.
type HealthCheckResult struct {
	Reachable bool
	Required  bool
	// Detail carries the failure description for unreachable probes.
	Detail string
}

// HealthReport is a point-in-time snapshot of all registered probes plus
// the composite status. It is computed on demand and never persisted.
type HealthReport struct {
	Status HealthStatus
	Checks map[string]HealthCheckResult
}

// HealthRegistry manages registration and execution of health checkers.
// Used by the readiness endpoint handler to determine service readiness.
type HealthRegistry interface {
	// Register adds a required HealthChecker. A required probe that fails
	// degrades the composite status.
	Register(checker HealthChecker)

	// RegisterOptional adds a HealthChecker whose failure can at most
	// degrade the composite status, never make it unhealthy.
	RegisterOptional(checker HealthChecker)

	// Check executes all registered probes, each bounded by the registry's
	// probe timeout, and returns a fresh composite report. A probe that
	// hangs or panics is recorded unreachable and never aborts the others.
	Check(ctx context.Context) HealthReport
}
