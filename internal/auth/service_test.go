package auth

import (
	"context"
	"testing"
	"time"

	"github.com/garagedesk/workshop-backend/internal/users"
	pkgAuth "github.com/garagedesk/workshop-backend/pkg/auth"
	"github.com/garagedesk/workshop-backend/pkg/auth/session"
	"github.com/garagedesk/workshop-backend/pkg/config"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/garagedesk/workshop-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "workshop-test",
	ExpirationMinutes: 15,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	created []users.CreateUserDTO

	createErr error
	lastLogin map[uuid.UUID]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:   map[string]*models.User{},
		byID:      map[uuid.UUID]*models.User{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeUserRepo) add(user *models.User) {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	f.add(user)
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeSessionManager struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	newID := "rotated-" + oldAccessID
	return newID, "refresh-" + newID, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func newTestService(t *testing.T, repo *fakeUserRepo, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		IsActive:     active,
	}
	repo.add(user)
	return user
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	svc := newTestService(t, repo, sessions)
	user := seedUser(t, repo, "mech@example.com", "str0ng-pass", enums.UserRoleMechanic, true)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  Mech@Example.com ", Password: "str0ng-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleMechanic {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(sessions.generated) != 1 || sessions.generated[0] != claims.ID {
		t.Fatalf("session must be keyed by the token jti, got %v", sessions.generated)
	}
}

func TestLoginRejections(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	svc := newTestService(t, repo, sessions)
	seedUser(t, repo, "active@example.com", "correct-pass", enums.UserRoleCustomer, true)
	seedUser(t, repo, "inactive@example.com", "correct-pass", enums.UserRoleCustomer, false)

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{name: "unknown email", req: LoginRequest{Email: "nobody@example.com", Password: "correct-pass"}},
		{name: "wrong password", req: LoginRequest{Email: "active@example.com", Password: "wrong"}},
		{name: "inactive account", req: LoginRequest{Email: "inactive@example.com", Password: "correct-pass"}},
		{name: "blank email", req: LoginRequest{Password: "correct-pass"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if typed.Message() != invalidCredentialsMessage {
				t.Fatalf("login failures must not leak detail: %q", typed.Message())
			}
		})
	}
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo, &fakeSessionManager{})

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Email:    " NEW.Customer@Example.com ",
		Password: "str0ng-pass",
		Name:     "  Budi Santoso ",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Email != "new.customer@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if dto.Name != "Budi Santoso" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.Role != enums.UserRoleCustomer {
		t.Fatalf("public registration must create customers, got %s", dto.Role)
	}
	if len(repo.created) != 1 || repo.created[0].PasswordHash == "str0ng-pass" {
		t.Fatal("password must be stored hashed")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errFakeUnique{}
	svc := newTestService(t, repo, &fakeSessionManager{})
	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Password: "str0ng-pass",
		Name:     "Dup",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

type errFakeUnique struct{}

func (errFakeUnique) Error() string {
	return `duplicate key value violates unique constraint "idx_users_email"`
}

func TestRefresh(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	svc := newTestService(t, repo, sessions)
	user := seedUser(t, repo, "mech@example.com", "str0ng-pass", enums.UserRoleMechanic, true)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "mech@example.com", Password: "str0ng-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("unexpected user in refreshed token: %s", claims.UserID)
	}
	if claims.ID == "" || claims.ID == sessions.generated[0] {
		t.Fatal("refresh must rotate the session identifier")
	}
}

func TestRefreshInvalidSession(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := newTestService(t, repo, sessions)
	seedUser(t, repo, "mech@example.com", "str0ng-pass", enums.UserRoleMechanic, true)

	login, err := newTestService(t, repo, &fakeSessionManager{}).
		Login(context.Background(), LoginRequest{Email: "mech@example.com", Password: "str0ng-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "stolen",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, newFakeUserRepo(), sessions)

	if err := svc.Logout(context.Background(), "session-jti"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "session-jti" {
		t.Fatalf("expected revoke call, got %v", sessions.revoked)
	}

	err := svc.Logout(context.Background(), "  ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}
