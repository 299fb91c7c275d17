// Package factory resolves configured backend names into constructed
// adapters. It is the single authority on known backend types: an unknown
// name is a fatal configuration error, never a silent fallback.
//
// Adapters are memoized, so every caller shares one instance per process.
// Construction is lazy; a profile that never touches the file store never
// builds an S3 client.
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	fsmemory "github.com/mentana/user-service/internal/adapters/filestore/memory"
	fss3 "github.com/mentana/user-service/internal/adapters/filestore/s3"
	repodynamodb "github.com/mentana/user-service/internal/adapters/repository/dynamodb"
	repomemory "github.com/mentana/user-service/internal/adapters/repository/memory"
	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/platform/awsclient"
	"github.com/mentana/user-service/internal/platform/config"
	"github.com/mentana/user-service/internal/ports"
)

// RepositoryBackend enumerates the known user repository backends.
type RepositoryBackend string

// FileStoreBackend enumerates the known file store backends.
type FileStoreBackend string

const (
	RepositoryDynamoDB RepositoryBackend = "dynamodb"
	RepositoryMemory   RepositoryBackend = "memory"

	FileStoreS3     FileStoreBackend = "s3"
	FileStoreMemory FileStoreBackend = "memory"
)

// ParseRepositoryBackend validates a configured repository backend name.
func ParseRepositoryBackend(s string) (RepositoryBackend, error) {
	switch b := RepositoryBackend(s); b {
	case RepositoryDynamoDB, RepositoryMemory:
		return b, nil
	default:
		return "", &domain.ConfigurationError{Backend: s}
	}
}

// ParseFileStoreBackend validates a configured file store backend name.
func ParseFileStoreBackend(s string) (FileStoreBackend, error) {
	switch b := FileStoreBackend(s); b {
	case FileStoreS3, FileStoreMemory:
		return b, nil
	default:
		return "", &domain.ConfigurationError{Backend: s}
	}
}

// Option customizes a Factory. Used by tests to substitute builders without
// touching the memoization logic.
type Option func(*Factory)

// WithUserRepositoryBuilder replaces the repository construction function.
func WithUserRepositoryBuilder(build func(ctx context.Context) (ports.UserRepository, error)) Option {
	return func(f *Factory) { f.buildUserRepository = build }
}

// WithFileStoreBuilder replaces the file store construction function.
func WithFileStoreBuilder(build func(ctx context.Context) (ports.FileStore, error)) Option {
	return func(f *Factory) { f.buildFileStore = build }
}

// Factory builds and memoizes the configured adapters. Safe for concurrent
// use; concurrent first calls construct exactly one instance.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger

	mu                  sync.Mutex
	awsCfg              *aws.Config
	userRepository      ports.UserRepository
	fileStore           ports.FileStore
	buildUserRepository func(ctx context.Context) (ports.UserRepository, error)
	buildFileStore      func(ctx context.Context) (ports.FileStore, error)
}

// New creates a Factory over the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Factory {
	f := &Factory{cfg: cfg, logger: logger}
	f.buildUserRepository = f.defaultUserRepository
	f.buildFileStore = f.defaultFileStore
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UserRepository returns the process-wide user repository, constructing it on
// first call.
func (f *Factory) UserRepository(ctx context.Context) (ports.UserRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.userRepository != nil {
		return f.userRepository, nil
	}
	repo, err := f.buildUserRepository(ctx)
	if err != nil {
		return nil, err
	}
	f.userRepository = repo
	f.logger.Info("user repository initialized",
		slog.String("backend", f.cfg.Repository.Backend),
	)
	return repo, nil
}

// FileStore returns the process-wide file store, constructing it on first
// call.
func (f *Factory) FileStore(ctx context.Context) (ports.FileStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fileStore != nil {
		return f.fileStore, nil
	}
	store, err := f.buildFileStore(ctx)
	if err != nil {
		return nil, err
	}
	f.fileStore = store
	f.logger.Info("file store initialized",
		slog.String("backend", f.cfg.FileStore.Backend),
	)
	return store, nil
}

// NewUserRepository constructs a repository for an explicit backend,
// bypassing the cache. The configured backend and any memoized instance are
// untouched; the shared aws.Config is still reused.
func (f *Factory) NewUserRepository(ctx context.Context, backend RepositoryBackend) (ports.UserRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildRepositoryBackend(ctx, backend)
}

// NewFileStore constructs a file store for an explicit backend, bypassing
// the cache.
func (f *Factory) NewFileStore(ctx context.Context, backend FileStoreBackend) (ports.FileStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildFileStoreBackend(ctx, backend)
}

func (f *Factory) defaultUserRepository(ctx context.Context) (ports.UserRepository, error) {
	backend, err := ParseRepositoryBackend(f.cfg.Repository.Backend)
	if err != nil {
		return nil, err
	}
	return f.buildRepositoryBackend(ctx, backend)
}

func (f *Factory) buildRepositoryBackend(ctx context.Context, backend RepositoryBackend) (ports.UserRepository, error) {
	switch backend {
	case RepositoryDynamoDB:
		awsCfg, err := f.loadAWSConfigLocked(ctx)
		if err != nil {
			return nil, err
		}
		client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if f.cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(f.cfg.AWS.Endpoint)
			}
		})
		breaker := awsclient.NewBreaker("dynamodb", f.cfg.AWS.CircuitBreaker, f.logger)
		return repodynamodb.NewUserRepository(client, f.cfg.Repository.Table, breaker, f.logger), nil
	case RepositoryMemory:
		return repomemory.NewUserRepository(), nil
	default:
		return nil, &domain.ConfigurationError{Backend: string(backend)}
	}
}

func (f *Factory) defaultFileStore(ctx context.Context) (ports.FileStore, error) {
	backend, err := ParseFileStoreBackend(f.cfg.FileStore.Backend)
	if err != nil {
		return nil, err
	}
	return f.buildFileStoreBackend(ctx, backend)
}

func (f *Factory) buildFileStoreBackend(ctx context.Context, backend FileStoreBackend) (ports.FileStore, error) {
	switch backend {
	case FileStoreS3:
		awsCfg, err := f.loadAWSConfigLocked(ctx)
		if err != nil {
			return nil, err
		}
		client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
			if f.cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(f.cfg.AWS.Endpoint)
				o.UsePathStyle = true
			}
		})
		breaker := awsclient.NewBreaker("s3", f.cfg.AWS.CircuitBreaker, f.logger)
		return fss3.NewFileStore(client, f.cfg.FileStore.Bucket, breaker, f.logger), nil
	case FileStoreMemory:
		return fsmemory.NewFileStore(f.cfg.FileStore.Bucket), nil
	default:
		return nil, &domain.ConfigurationError{Backend: string(backend)}
	}
}

// loadAWSConfigLocked memoizes the shared aws.Config. Callers already hold
// f.mu via UserRepository or FileStore.
func (f *Factory) loadAWSConfigLocked(ctx context.Context) (aws.Config, error) {
	if f.awsCfg != nil {
		return *f.awsCfg, nil
	}
	awsCfg, err := awsclient.Load(ctx, &f.cfg.AWS)
	if err != nil {
		return aws.Config{}, fmt.Errorf("initializing aws clients: %w", err)
	}
	f.awsCfg = &awsCfg
	return awsCfg, nil
}
