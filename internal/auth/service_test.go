package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/dulcemocka/ordering-backend/pkg/auth"
	"github.com/dulcemocka/ordering-backend/pkg/auth/session"
	"github.com/dulcemocka/ordering-backend/pkg/config"
	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
	"github.com/dulcemocka/ordering-backend/pkg/security"
)

type fakeRepository struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	created []*models.User
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (f *fakeRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	f.created = append(f.created, user)
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if u, ok := f.byID[id]; ok {
		u.PasswordHash = &hash
	}
	return nil
}

type fakeSessions struct {
	generated []string
	revoked   []string
	rotateFn  func(oldAccessID, provided string) (string, string, error)
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateFn != nil {
		return f.rotateFn(oldAccessID, provided)
	}
	return session.NewAccessID(), "refresh-rotated", nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "dulcemocka-test",
		ExpirationMinutes: 30,
	}
}

type testEnv struct {
	repo     *fakeRepository
	sessions *fakeSessions
	svc      Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     newFakeRepository(),
		sessions: &fakeSessions{},
	}
	svc, err := NewService(ServiceParams{
		Repo:           env.repo,
		SessionManager: env.sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) seedUser(t *testing.T, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Maria Lopez",
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		IsActive:     active,
	}
	e.repo.byEmail[email] = user
	e.repo.byID[user.ID] = user
	return user
}

func TestService_RegisterCreatesCustomerAndSignsIn(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.svc.Register(context.Background(), RegisterRequest{
		Name:     "  Maria Lopez  ",
		Email:    "  MARIA@Example.com ",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.repo.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(env.repo.created))
	}
	created := env.repo.created[0]
	if created.Email != "maria@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.Name != "Maria Lopez" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", created.Role)
	}
	if created.PasswordHash == nil || *created.PasswordHash == "supersecret" {
		t.Fatal("password must be stored hashed")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != created.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	_, err := env.svc.Register(context.Background(), RegisterRequest{
		Name:     "Maria",
		Email:    "maria@example.com",
		Password: "supersecret",
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_RegisterShortPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), RegisterRequest{
		Name:     "Maria",
		Email:    "maria@example.com",
		Password: "short",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_LoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	resp, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    " Maria@Example.com ",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatal("expected the seeded user in response")
	}
	if len(env.sessions.generated) != 1 {
		t.Fatalf("expected one session generated, got %d", len(env.sessions.generated))
	}
}

func TestService_LoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)
	env.seedUser(t, "inactive@example.com", "supersecret", enums.UserRoleCustomer, false)

	cases := []LoginRequest{
		{Email: "unknown@example.com", Password: "supersecret"},
		{Email: "maria@example.com", Password: "wrongpass"},
		{Email: "inactive@example.com", Password: "supersecret"},
	}
	for _, req := range cases {
		_, err := env.svc.Login(context.Background(), req)
		if err == nil {
			t.Fatalf("expected failure for %q", req.Email)
		}
		appErr := pkgerrors.As(err)
		if appErr.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Email, err)
		}
		if appErr.Message() != invalidCredentialsMessage {
			t.Fatalf("expected uniform message for %q, got %q", req.Email, appErr.Message())
		}
	}
}

func TestService_AdminLoginRejectsCustomers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	_, err := env.svc.AdminLogin(context.Background(), LoginRequest{
		Email:    "maria@example.com",
		Password: "supersecret",
	})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestService_RefreshRotatesSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	login, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    "maria@example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := env.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == login.AccessToken {
		t.Fatal("expected a fresh access token")
	}
	if resp.RefreshToken != "refresh-rotated" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}
	if resp.User.ID != user.ID {
		t.Fatal("expected the same user")
	}
}

func TestService_RefreshInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.rotateFn = func(oldAccessID, provided string) (string, string, error) {
		return "", "", session.ErrInvalidRefreshToken
	}
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	accessToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = env.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "bogus",
	})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)
	oldHash := *user.PasswordHash

	err := env.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "supersecret",
		NewPassword:     "evenmoresecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *user.PasswordHash == oldHash {
		t.Fatal("expected stored hash to change")
	}

	if _, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    "maria@example.com",
		Password: "evenmoresecret",
	}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestService_ChangePasswordWrongCurrent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)

	err := env.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "wrongpass",
		NewPassword:     "evenmoresecret",
	})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestService_ChangePasswordNoExistingHash(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "maria@example.com", "supersecret", enums.UserRoleCustomer, true)
	user.PasswordHash = nil

	err := env.svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		NewPassword: "evenmoresecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.PasswordHash == nil {
		t.Fatal("expected a hash to be stored")
	}
}

func TestService_LogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.sessions.revoked) != 1 || env.sessions.revoked[0] != "access-id" {
		t.Fatalf("expected revoke for access-id, got %v", env.sessions.revoked)
	}
}
