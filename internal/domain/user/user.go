// Package user defines the User entity and its business rules.
package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/domain"
)

// maxNameLength bounds the name field; longer values are rejected rather
// than truncated.
const maxNameLength = 256

// emailPattern is a pragmatic format check. Uniqueness is the store's job,
// not the entity's.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User represents an account holder. The ID is assigned exactly once, at
// creation, and never reassigned. Email uniqueness is enforced by the
// backing store.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a User with a fresh ID and creation timestamps, then validates
// it. Returns a *domain.ValidationError if the input violates business rules.
func New(email, name string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(email),
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks business rules for the User entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details, or nil if all rules pass.
func (u *User) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(u.Email) == "" {
		fields["email"] = domain.MsgRequired
	} else if !emailPattern.MatchString(u.Email) {
		fields["email"] = fmt.Sprintf("invalid format: %q", u.Email)
	}
	if strings.TrimSpace(u.Name) == "" {
		fields["name"] = domain.MsgRequired
	} else if len(u.Name) > maxNameLength {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if u.ID == uuid.Nil {
		fields["id"] = domain.MsgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Rename changes the user's name and refreshes UpdatedAt.
// Returns a *domain.ValidationError if the new name is invalid.
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{Fields: map[string]string{"name": domain.MsgRequired}}
	}
	if len(name) > maxNameLength {
		return &domain.ValidationError{Fields: map[string]string{
			"name": fmt.Sprintf("must be at most %d characters", maxNameLength),
		}}
	}
	u.Name = name
	u.Touch()
	return nil
}

// Activate marks the user active and refreshes UpdatedAt.
func (u *User) Activate() {
	u.Active = true
	u.Touch()
}

// Deactivate marks the user inactive and refreshes UpdatedAt.
func (u *User) Deactivate() {
	u.Active = false
	u.Touch()
}

// Touch refreshes the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}
