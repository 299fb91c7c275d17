package ports

import "context"

// FileStore defines the object-storage port. Implemented by the S3 and
// in-memory adapters; called by the application layer. The port mandates no
// retry policy: bounded per-call retries are an adapter concern.
type FileStore interface {
	// Put stores content under key and returns the object's location.
	// Returns domain.ErrForbidden when the store denies access and
	// domain.ErrUnavailable for transient backend failure.
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the location an object under key would be served from.
	// It performs no I/O and does not imply the object exists.
	URL(key string) string
}
