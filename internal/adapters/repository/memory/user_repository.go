// Package memory implements the user repository port with an in-process map.
// Used by the local profile and by tests that need a real repository without
// a DynamoDB endpoint.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.UserRepository = (*UserRepository)(nil)
	_ ports.HealthChecker  = (*UserRepository)(nil)
)

// UserRepository is a thread-safe in-memory implementation of
// [ports.UserRepository]. Entities are copied on the way in and out so
// callers can never mutate stored state through a returned pointer.
type UserRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]user.User
	byEmail map[string]uuid.UUID
}

// NewUserRepository creates an empty in-memory repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[uuid.UUID]user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new user. Returns domain.ErrConflict when the ID or email
// is already taken.
func (r *UserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return nil, fmt.Errorf("user %s: %w", u.ID, domain.ErrConflict)
	}
	if _, ok := r.byEmail[emailKey(u.Email)]; ok {
		return nil, fmt.Errorf("email %q already registered: %w", u.Email, domain.ErrConflict)
	}

	r.users[u.ID] = *u
	r.byEmail[emailKey(u.Email)] = u.ID

	stored := *u
	return &stored, nil
}

// GetByID returns a single user by ID.
func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

// GetByEmail returns a single user by email, case-insensitively.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, fmt.Errorf("user with email %q: %w", email, domain.ErrNotFound)
	}
	u := r.users[id]
	return &u, nil
}

// List returns all users in unspecified order.
func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

// ListActive returns all users whose Active flag is set.
func (r *UserRepository) ListActive(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0)
	for _, u := range r.users {
		if u.Active {
			users = append(users, u)
		}
	}
	return users, nil
}

// Update overwrites an existing user's mutable fields. The email index is
// untouched because the email is immutable.
func (r *UserRepository) Update(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return nil, fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
	}
	r.users[u.ID] = *u

	stored := *u
	return &stored, nil
}

// Delete removes a user and frees its email for reuse.
func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(r.users, id)
	delete(r.byEmail, emailKey(u.Email))
	return nil
}

// Name identifies this adapter in health reports.
func (r *UserRepository) Name() string {
	return "memory-repository"
}

// HealthCheck always succeeds; an in-process map has no failure mode worth
// probing.
func (r *UserRepository) HealthCheck(context.Context) error {
	return nil
}
