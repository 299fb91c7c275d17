package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/domain/user"
)

// UserService defines the service port for user operations.
// Implemented by the application layer; called by inbound adapters (handlers).
// Use cases orchestrate purely over the repository port and propagate the
// domain error taxonomy unchanged.
type UserService interface {
	// CreateUser validates input, persists a new user, and returns the
	// created entity with server-assigned fields (ID, timestamps).
	// Returns domain.ErrValidation for bad input and domain.ErrConflict
	// when the email is already registered.
	CreateUser(ctx context.Context, email, name string) (*user.User, error)

	// GetUser returns a single user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)

	// ListUsers returns all users. An empty result is not an error.
	ListUsers(ctx context.Context) ([]user.User, error)

	// ListActiveUsers returns all users whose Active flag is set.
	ListActiveUsers(ctx context.Context) ([]user.User, error)

	// UpdateUser applies the non-nil fields to an existing user and
	// returns the updated entity.
	// Returns domain.ErrNotFound if the user does not exist.
	UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*user.User, error)

	// DeleteUser removes a user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserUpdate carries the optional fields of a partial user update.
// Nil means "do not change this field".
type UserUpdate struct {
	Name   *string
	Active *bool
}

// StorageService defines the service port for object-storage diagnostics.
// Implemented by the application layer over the FileStore port.
type StorageService interface {
	// UploadProbe writes a small timestamped diagnostic object to the
	// configured file store and verifies it is readable back.
	UploadProbe(ctx context.Context) (*ProbeResult, error)
}

// ProbeResult describes a completed storage probe.
type ProbeResult struct {
	Key        string
	Location   string
	Verified   bool
	UploadedAt time.Time
}
