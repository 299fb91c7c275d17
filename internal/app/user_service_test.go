package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mentana/user-service/internal/adapters/repository/memory"
	"github.com/mentana/user-service/internal/app"
	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService() (*app.UserService, *memory.UserRepository) {
	repo := memory.NewUserRepository()
	return app.NewUserService(repo, testLogger()), repo
}

// mockUserRepository is a hand-written testify mock for the repository port;
// used for error-path coverage that the in-memory repository cannot produce.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	args := m.Called(ctx, u)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	return usersArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	return usersArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	args := m.Called(ctx, u)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userArg(v any) *user.User {
	if v == nil {
		return nil
	}
	return v.(*user.User)
}

func usersArg(v any) []user.User {
	if v == nil {
		return nil
	}
	return v.([]user.User)
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	created, err := svc.CreateUser(context.Background(), "jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("CreateUser() did not assign an ID")
	}
	if !created.Active {
		t.Error("CreateUser() Active = false, want true")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not assign timestamps")
	}
}

func TestCreateUser_InvalidInput_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		email     string
		userName  string
		wantField string
	}{
		{name: "empty email", email: "", userName: "Jane", wantField: "email"},
		{name: "malformed email", email: "not-an-email", userName: "Jane", wantField: "email"},
		{name: "empty name", email: "jane@example.com", userName: "", wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newService()
			_, err := svc.CreateUser(context.Background(), tt.email, tt.userName)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("CreateUser() error = %v, want domain.ErrValidation", err)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %T, want *domain.ValidationError", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("Fields = %v, want entry for %q", verr.Fields, tt.wantField)
			}
		})
	}
}

func TestCreateUser_InvalidInput_NeverReachesRepository(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepository{}
	svc := app.NewUserService(repo, testLogger())

	_, err := svc.CreateUser(context.Background(), "bad-email", "Jane")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateUser() error = %v, want domain.ErrValidation", err)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateEmail_ReturnsConflict(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	if _, err := svc.CreateUser(context.Background(), "jane@example.com", "Jane"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	_, err := svc.CreateUser(context.Background(), "jane@example.com", "Other Jane")
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want domain.ErrConflict", err)
	}
}

func TestGetUser_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	_, err := svc.GetUser(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want domain.ErrNotFound", err)
	}
}

func TestListUsers_EmptyStore(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("ListUsers() returned %d users, want 0", len(users))
	}
}

func TestListActiveUsers(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	active, err := svc.CreateUser(ctx, "active@example.com", "Active")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	inactive, err := svc.CreateUser(ctx, "inactive@example.com", "Inactive")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	off := false
	if _, err := svc.UpdateUser(ctx, inactive.ID, ports.UserUpdate{Active: &off}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	users, err := svc.ListActiveUsers(ctx)
	if err != nil {
		t.Fatalf("ListActiveUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("ListActiveUsers() returned %d users, want 1", len(users))
	}
	if users[0].ID != active.ID {
		t.Errorf("ListActiveUsers() ID = %v, want %v", users[0].ID, active.ID)
	}
}

func TestUpdateUser_PartialUpdate(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	name := "Jane Smith"
	updated, err := svc.UpdateUser(ctx, created.ID, ports.UserUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Name != "Jane Smith" {
		t.Errorf("name = %q, want Jane Smith", updated.Name)
	}
	if !updated.Active {
		t.Error("Active flag changed by a name-only update")
	}
	if updated.Email != "jane@example.com" {
		t.Errorf("email = %q, want jane@example.com (immutable)", updated.Email)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt not refreshed by update")
	}
}

func TestUpdateUser_EmptyUpdate_IsANoOpWrite(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	updated, err := svc.UpdateUser(ctx, created.ID, ports.UserUpdate{})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Name != created.Name || updated.Active != created.Active {
		t.Errorf("empty update changed fields: %+v", updated)
	}
}

func TestUpdateUser_InvalidName_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	empty := "   "
	_, err = svc.UpdateUser(ctx, created.ID, ports.UserUpdate{Name: &empty})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpdateUser() error = %v, want domain.ErrValidation", err)
	}
}

func TestUpdateUser_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	name := "Ghost"
	_, err := svc.UpdateUser(context.Background(), uuid.New(), ports.UserUpdate{Name: &name})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want domain.ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := svc.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := svc.GetUser(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser() after delete error = %v, want domain.ErrNotFound", err)
	}
}

func TestDeleteUser_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	if err := svc.DeleteUser(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteUser() error = %v, want domain.ErrNotFound", err)
	}
}

func TestRepositoryErrors_PassThroughUntranslated(t *testing.T) {
	t.Parallel()

	backendDown := errors.New("dynamodb down: unavailable")
	repo := &mockUserRepository{}
	repo.On("List", mock.Anything).Return(nil, backendDown)
	repo.On("Delete", mock.Anything, mock.Anything).Return(backendDown)
	svc := app.NewUserService(repo, testLogger())

	if _, err := svc.ListUsers(context.Background()); !errors.Is(err, backendDown) {
		t.Errorf("ListUsers() error = %v, want %v", err, backendDown)
	}
	if err := svc.DeleteUser(context.Background(), uuid.New()); !errors.Is(err, backendDown) {
		t.Errorf("DeleteUser() error = %v, want %v", err, backendDown)
	}
	repo.AssertExpectations(t)
}
