// Package memory implements the file store port with an in-process map.
// Used by the local profile and by tests that need a real file store without
// an S3 bucket.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mentana/user-service/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.FileStore     = (*FileStore)(nil)
	_ ports.HealthChecker = (*FileStore)(nil)
)

type object struct {
	content     []byte
	contentType string
}

// FileStore is a thread-safe in-memory implementation of [ports.FileStore].
type FileStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]object
}

// NewFileStore creates an empty in-memory file store. The bucket name only
// shapes the URLs it reports.
func NewFileStore(bucket string) *FileStore {
	return &FileStore{
		bucket:  bucket,
		objects: make(map[string]object),
	}
}

// Put stores content under key and returns the object's URL. Content is
// copied so later mutation of the caller's slice cannot change stored state.
func (s *FileStore) Put(_ context.Context, key string, content []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(content))
	copy(stored, content)
	s.objects[key] = object{content: stored, contentType: contentType}
	return s.URL(key), nil
}

// Exists reports whether an object is stored under key.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

// Delete removes the object stored under key. Deleting a missing key is not
// an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// URL returns the location an object under key would be served from. The
// shape mirrors the S3 adapter so responses look the same across profiles.
func (s *FileStore) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// Name identifies this adapter in health reports.
func (s *FileStore) Name() string {
	return "memory-filestore"
}

// HealthCheck always succeeds.
func (s *FileStore) HealthCheck(context.Context) error {
	return nil
}
