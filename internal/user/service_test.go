package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) Create(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) Update(ctx context.Context, u *User) error {
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

// plainHasher avoids bcrypt cost in unit tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }

func (plainHasher) Compare(hash, plain string) error {
	if hash != "h:"+plain {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, plainHasher{}), repo
}

func TestRegisterNormalizesEmailAndDefaultsToCustomer(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "  Alice@Example.COM ", "supersecret", "Alice")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.True(t, u.IsActive)
	require.NotNil(t, u.DisplayName)
	assert.Equal(t, "Alice", *u.DisplayName)
	assert.NotEqual(t, "supersecret", u.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "supersecret", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE@example.com", "supersecret", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice@example.com", "short", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "supersecret", "")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@example.com", "supersecret", "")
	require.NoError(t, err)

	repo.users[u.ID].IsActive = false

	_, err = svc.Login(ctx, "alice@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestUpdateValidatesRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@example.com", "supersecret", "")
	require.NoError(t, err)

	bad := "superuser"
	_, err = svc.Update(ctx, u.ID, UpdateRequest{Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidRole)

	agent := string(RoleSupportAgent)
	updated, err := svc.Update(ctx, u.ID, UpdateRequest{Role: &agent})
	require.NoError(t, err)
	assert.Equal(t, RoleSupportAgent, updated.Role)
	assert.True(t, updated.Role.IsStaff())
}
