package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/domain/user"
)

// UserRepository defines the persistence port for User entities.
// Implemented by storage adapters (DynamoDB, in-memory); called by the
// application layer. Adapters translate backend-native failures into the
// domain error taxonomy at this boundary: domain.ErrConflict,
// domain.ErrValidation, domain.ErrNotFound, and domain.ErrUnavailable for
// transient backend failure.
type UserRepository interface {
	// Create persists a new user and returns the stored entity.
	// Returns domain.ErrConflict if the email is already registered.
	Create(ctx context.Context, u *user.User) (*user.User, error)

	// GetByID returns a single user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)

	// GetByEmail returns a single user by email address.
	// Returns domain.ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*user.User, error)

	// List returns all users. Order is backend-defined and not guaranteed
	// stable across calls. An empty store yields an empty slice, not an error.
	List(ctx context.Context) ([]user.User, error)

	// ListActive returns all users whose Active flag is set.
	ListActive(ctx context.Context) ([]user.User, error)

	// Update persists changes to an existing user's mutable fields
	// (name, active flag, updated-at). The email is immutable.
	// Returns domain.ErrNotFound if the user does not exist.
	Update(ctx context.Context, u *user.User) (*user.User, error)

	// Delete removes a user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
