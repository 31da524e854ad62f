package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/pkg/auth"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.users[user.Email] = user
	return nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret", RefreshSecret: "test-refresh"})
	return NewService(repo, jwtSvc), repo
}

func seedUser(t *testing.T, repo *fakeUserRepo, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		Email:        "patient@example.com",
		PasswordHash: string(hash),
		Role:         model.RolePatient,
		Status:       model.UserStatusActive,
	}
	user.ID = uuid.New()
	repo.users[user.Email] = user
	return user
}

func TestRegister_CreatesPatientAndIssuesTokens(t *testing.T) {
	svc, repo := newTestService()

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:     "new@example.com",
		Password:  "correct-horse",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RolePatient, resp.User.Role)
	assert.Contains(t, repo.users, "new@example.com")
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "password123")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:     "patient@example.com",
		Password:  "password123",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestLogin_Success(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "password123")

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.LastLoginAt)
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "password123")

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	svc, repo := newTestService()
	user := seedUser(t, repo, "password123")

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "patient@example.com",
			Password: "wrong",
		})
		require.Error(t, err)
	}
	assert.Equal(t, model.UserStatusLocked, user.Status)

	// Correct password is still refused while locked.
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogin_LockExpiresAfterCooldown(t *testing.T) {
	svc, repo := newTestService()
	user := seedUser(t, repo, "password123")
	user.Status = model.UserStatusLocked
	user.LoginAttempts = maxLoginAttempts
	user.LastLoginAttempt = time.Now().Add(-lockoutDuration - time.Minute)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, resp.User.Status)
	assert.Equal(t, 0, resp.User.LoginAttempts)
}

func TestRefresh_IssuesNewTokens(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "password123")

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "password123")

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "patient@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: login.AccessToken,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}
