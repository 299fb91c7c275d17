// Package awsclient centralizes AWS SDK configuration and the resilience
// policy shared by all AWS-backed adapters.
//
// Construction:
//
//	awsCfg, err := awsclient.Load(ctx, &cfg.AWS)
//	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
//		o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
//	})
//
// Retry policy lives here (the SDK's adaptive retryer bounded by MaxAttempts);
// adapters add a circuit breaker on top via NewBreaker.
package awsclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sony/gobreaker/v2"

	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/platform/config"
)

// Load builds an aws.Config from the environment's default credential chain
// with the configured region and retry bound applied.
func Load(ctx context.Context, cfg *config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return awsCfg, nil
}

// NewBreaker creates a circuit breaker guarding calls to a single AWS backend.
// Business errors that the adapter has already translated into domain
// sentinels (not found, conflict, validation, forbidden) do not count as
// failures; only transport-level faults trip the breaker.
func NewBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: toUint32(cfg.HalfOpenLimit),
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, domain.ErrConflict) ||
				errors.Is(err, domain.ErrValidation) ||
				errors.Is(err, domain.ErrForbidden)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// BreakerHealth maps a breaker's state to a health probe error. It reports
// backend availability without making a network call; adapters combine it
// with a live probe.
func BreakerHealth(name string, cb *gobreaker.CircuitBreaker[struct{}]) error {
	switch state := cb.State(); state {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen:
		return fmt.Errorf("%s: degraded (circuit breaker half-open)", name)
	case gobreaker.StateOpen:
		return fmt.Errorf("%s: failing (circuit breaker open)", name)
	default:
		return fmt.Errorf("%s: unknown circuit breaker state %v", name, state)
	}
}

// toUint32 safely converts a non-negative int to uint32, clamping at the
// uint32 maximum. Negative values are treated as zero.
func toUint32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
