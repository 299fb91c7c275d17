// Package s3 implements the file store port on an S3 bucket.
//
// Object URLs use the virtual-hosted style, https://<bucket>.s3.amazonaws.com/<key>,
// regardless of any endpoint override; the override only redirects API calls.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker/v2"

	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/platform/awsclient"
	"github.com/mentana/user-service/internal/ports"
)

// checkerName identifies this adapter in health reports.
const checkerName = "s3"

// API is the subset of the S3 client used by the file store.
// Satisfied by *s3.Client; narrowed for stubbing in tests.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Compile-time interface checks.
var (
	_ ports.FileStore     = (*FileStore)(nil)
	_ ports.HealthChecker = (*FileStore)(nil)
	_ API                 = (*s3.Client)(nil)
)

// FileStore is an S3-backed implementation of [ports.FileStore]. All calls
// run through a circuit breaker; access-denied responses are translated to
// domain.ErrForbidden and do not count as breaker failures.
type FileStore struct {
	client  API
	bucket  string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewFileStore creates a file store against the given bucket.
func NewFileStore(client API, bucket string, breaker *gobreaker.CircuitBreaker[struct{}], logger *slog.Logger) *FileStore {
	return &FileStore{
		client:  client,
		bucket:  bucket,
		breaker: breaker,
		logger:  logger,
	}
}

// Put stores content under key and returns the object's URL.
func (s *FileStore) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(content),
			ContentType: aws.String(contentType),
		})
		return struct{}{}, s.translateAPIError(err)
	})
	if err != nil {
		return "", s.translate("put object", key, err)
	}
	return s.URL(key), nil
}

// Exists reports whether an object is stored under key.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	found := false
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			found = true
			return struct{}{}, nil
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return struct{}{}, nil
		}
		return struct{}{}, s.translateAPIError(err)
	})
	if err != nil {
		return false, s.translate("head object", key, err)
	}
	return found, nil
}

// Delete removes the object stored under key. S3 treats deleting a missing
// key as success, which matches the port contract.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return struct{}{}, s.translateAPIError(err)
	})
	if err != nil {
		return s.translate("delete object", key, err)
	}
	return nil
}

// URL returns the virtual-hosted URL for key. No I/O is performed.
func (s *FileStore) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// Name identifies this adapter in health reports.
func (s *FileStore) Name() string {
	return checkerName
}

// HealthCheck probes the bucket with HeadBucket through the breaker, so an
// open circuit reports failure without a network call.
func (s *FileStore) HealthCheck(ctx context.Context) error {
	if err := awsclient.BreakerHealth(checkerName, s.breaker); err != nil {
		return err
	}
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(s.bucket),
		})
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

// translateAPIError maps modeled S3 errors onto domain sentinels inside the
// breaker, so translated business errors never trip it.
func (s *FileStore) translateAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("bucket %s: access denied: %w", s.bucket, domain.ErrForbidden)
		case "NoSuchBucket":
			return fmt.Errorf("bucket %s does not exist: %w", s.bucket, domain.ErrUnavailable)
		}
	}
	return err
}

// translate maps untranslated backend failures onto the domain taxonomy.
func (s *FileStore) translate(op, key string, err error) error {
	if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: circuit open: %w", op, domain.ErrUnavailable)
	}
	s.logger.Error("s3 call failed",
		slog.String("operation", op),
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.Any("error", err),
	)
	return fmt.Errorf("%s %q: %v: %w", op, key, err, domain.ErrUnavailable)
}
