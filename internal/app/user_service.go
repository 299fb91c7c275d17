// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/ports"
)

// Compile-time check that UserService implements ports.UserService.
var _ ports.UserService = (*UserService)(nil)

// UserService implements ports.UserService by orchestrating user operations
// over the repository port. It handles structured logging and multi-step
// coordination; business rules live on the entity, uniqueness lives in the
// store. Domain errors from either pass through untranslated.
type UserService struct {
	repo   ports.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService over the given repository.
func NewUserService(repo ports.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// CreateUser validates input, persists a new user, and returns the created
// entity with its server-assigned ID and timestamps.
func (s *UserService) CreateUser(ctx context.Context, email, name string) (*user.User, error) {
	s.logger.InfoContext(ctx, "creating user", slog.String("email", email))

	u, err := user.New(email, name)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create user",
			slog.String("operation", "CreateUser"),
			slog.Any("error", err),
		)
		return nil, err
	}

	return created, nil
}

// GetUser returns a single user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.logger.InfoContext(ctx, "fetching user", slog.String("id", id.String()))

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch user",
			slog.String("operation", "GetUser"),
			slog.String("id", id.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	return u, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	s.logger.InfoContext(ctx, "listing users")

	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users",
			slog.String("operation", "ListUsers"),
			slog.Any("error", err),
		)
		return nil, err
	}

	return users, nil
}

// ListActiveUsers returns all users whose Active flag is set.
func (s *UserService) ListActiveUsers(ctx context.Context) ([]user.User, error) {
	s.logger.InfoContext(ctx, "listing active users")

	users, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list active users",
			slog.String("operation", "ListActiveUsers"),
			slog.Any("error", err),
		)
		return nil, err
	}

	return users, nil
}

// UpdateUser loads an existing user, applies the non-nil update fields, and
// persists the result. The email is immutable and never part of the update.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, update ports.UserUpdate) (*user.User, error) {
	s.logger.InfoContext(ctx, "updating user", slog.String("id", id.String()))

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load user for update",
			slog.String("operation", "UpdateUser"),
			slog.String("id", id.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	if update.Name != nil {
		if err := u.Rename(*update.Name); err != nil {
			return nil, err
		}
	}
	if update.Active != nil {
		if *update.Active {
			u.Activate()
		} else {
			u.Deactivate()
		}
	}

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update user",
			slog.String("operation", "UpdateUser"),
			slog.String("id", id.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	return updated, nil
}

// DeleteUser removes a user by ID.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.logger.InfoContext(ctx, "deleting user", slog.String("id", id.String()))

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete user",
			slog.String("operation", "DeleteUser"),
			slog.String("id", id.String()),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}
