package dto

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mentana/user-service/internal/domain"
)

const (
	msgRequired     = "is required"
	msgMustNotEmpty = "must not be empty"
)

// validate is shared across requests; the instance caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateUserRequest represents the JSON body for registering a new user.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

// Validate checks that required fields are present and the email is
// well-formed. Returns a *domain.ValidationError if any checks fail.
// The entity revalidates on construction; this pass exists to reject
// malformed bodies with field locations before any domain work happens.
func (r *CreateUserRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = msgRequired
	} else if err := validate.Var(r.Email, "email"); err != nil {
		fields["email"] = fmt.Sprintf("invalid format: %q", r.Email)
	}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateUserRequest represents the JSON body for partially updating a user.
// All fields are optional; nil means "do not change this field". The email
// is immutable and deliberately absent.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Validate checks that any provided fields have valid values.
// Returns a *domain.ValidationError if any checks fail.
func (r *UpdateUserRequest) Validate() error {
	fields := make(map[string]string)

	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		fields["name"] = msgMustNotEmpty
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
