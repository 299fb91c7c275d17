// Package health provides a thread-safe health check registry that aggregates
// probes of downstream dependencies into a composite readiness verdict. The
// registry is used by the readiness endpoint to decide whether the service can
// accept traffic.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mentana/user-service/internal/ports"
)

// DefaultProbeTimeout bounds each probe when no timeout is configured.
const DefaultProbeTimeout = 2 * time.Second

// Compile-time interface check.
var _ ports.HealthRegistry = (*Registry)(nil)

type entry struct {
	checker  ports.HealthChecker
	required bool
}

// Registry is a thread-safe implementation of [ports.HealthRegistry].
// Components that implement [ports.HealthChecker] are registered at startup
// and probed on each readiness request. Probes run concurrently, each bounded
// by the probe timeout, so one slow dependency cannot stall the whole report.
type Registry struct {
	mu           sync.RWMutex
	entries      []entry
	probeTimeout time.Duration
}

// New creates an empty health check registry. A non-positive probeTimeout
// falls back to [DefaultProbeTimeout].
func New(probeTimeout time.Duration) *Registry {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Registry{probeTimeout: probeTimeout}
}

// Register adds a required health checker. Safe for concurrent use.
func (r *Registry) Register(checker ports.HealthChecker) {
	r.add(checker, true)
}

// RegisterOptional adds a health checker whose failure degrades the composite
// status but never makes it unhealthy. Safe for concurrent use.
func (r *Registry) RegisterOptional(checker ports.HealthChecker) {
	r.add(checker, false)
}

func (r *Registry) add(checker ports.HealthChecker, required bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{checker: checker, required: required})
}

// Check executes all registered probes concurrently and returns a fresh
// composite report. The slice is copied under a read lock so probes run
// without holding the lock. A probe that overruns its timeout or panics is
// recorded as unreachable; the remaining probes are unaffected.
func (r *Registry) Check(ctx context.Context) ports.HealthReport {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	timeout := r.probeTimeout
	r.mu.RUnlock()

	type outcome struct {
		name     string
		required bool
		err      error
	}

	results := make(chan outcome, len(entries))
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			results <- outcome{
				name:     e.checker.Name(),
				required: e.required,
				err:      r.probe(ctx, e.checker, timeout),
			}
		}(e)
	}
	wg.Wait()
	close(results)

	report := ports.HealthReport{Checks: make(map[string]ports.HealthCheckResult, len(entries))}
	requiredTotal, requiredUp := 0, 0
	anyFailure := false
	for o := range results {
		res := ports.HealthCheckResult{Reachable: o.err == nil, Required: o.required}
		if o.err != nil {
			res.Detail = o.err.Error()
			anyFailure = true
		}
		report.Checks[o.name] = res
		if o.required {
			requiredTotal++
			if o.err == nil {
				requiredUp++
			}
		}
	}

	switch {
	case requiredTotal > 0 && requiredUp == 0:
		report.Status = ports.StatusUnhealthy
	case anyFailure:
		report.Status = ports.StatusDegraded
	default:
		report.Status = ports.StatusHealthy
	}
	return report
}

// probe runs a single checker under its own deadline. The checker runs in a
// separate goroutine so a hung probe only leaks that goroutine instead of
// blocking the report; its eventual result is discarded via the buffered
// channel.
func (r *Registry) probe(ctx context.Context, checker ports.HealthChecker, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("health check panicked: %v", rec)
			}
		}()
		done <- checker.HealthCheck(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
