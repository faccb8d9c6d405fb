package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgAuth "github.com/velora-labs/velora-backend/pkg/auth"
	"github.com/velora-labs/velora-backend/pkg/config"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
	"github.com/velora-labs/velora-backend/pkg/security"
)

type stubUserRepo struct {
	users      map[string]*models.User
	updated    *models.User
	newHash    string
	createFail error
}

func (s *stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if s.createFail != nil {
		return nil, s.createFail
	}
	user.ID = uuid.New()
	if s.users == nil {
		s.users = map[string]*models.User{}
	}
	s.users[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.users[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(_ context.Context, user *models.User) (*models.User, error) {
	s.updated = user
	return user, nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, _ uuid.UUID, hash string) error {
	s.newHash = hash
	return nil
}

type stubSessionManager struct {
	created []string
	revoked []string
}

func (s *stubSessionManager) Create(_ context.Context, accessID string) error {
	s.created = append(s.created, accessID)
	return nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubResetStore struct {
	values map[string]string
}

func (s *stubResetStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value.(string)
	return nil
}

func (s *stubResetStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (s *stubResetStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *stubResetStore) PasswordResetKey(tokenHash string) string {
	return "pwreset:" + tokenHash
}

type stubMailer struct {
	to      string
	subject string
	body    string
}

func (s *stubMailer) Send(to, subject, body string) error {
	s.to = to
	s.subject = subject
	s.body = body
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "velora", ExpirationMinutes: 30}
}

func buildTestService(t *testing.T, repo *stubUserRepo) (Service, *stubSessionManager, *stubResetStore, *stubMailer) {
	t.Helper()
	sessions := &stubSessionManager{}
	resets := &stubResetStore{}
	mail := &stubMailer{}
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Session:     sessions,
		ResetTokens: resets,
		Mail:        mail,
		JWTConfig:   testJWTConfig(),
		Password:    config.PasswordConfig{},
		FrontendURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, resets, mail
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestRegisterIssuesTokenWithConsumerRole(t *testing.T) {
	repo := &stubUserRepo{}
	svc, sessions, _, _ := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: "Asha",
		Email:    "Asha@Example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.User.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.UserRoleConsumer {
		t.Fatalf("expected consumer role, got %s", claims.Role)
	}
	if len(sessions.created) != 1 || sessions.created[0] != claims.ID {
		t.Fatalf("expected session registered under token jti")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash := mustHash(t, "right-password")
	repo := &stubUserRepo{users: map[string]*models.User{
		"user@example.com": {ID: uuid.New(), Email: "user@example.com", PasswordHash: &hash, Role: enums.UserRoleConsumer},
	}}
	svc, _, _, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsOAuthOnlyAccount(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{
		"oauth@example.com": {ID: uuid.New(), Email: "oauth@example.com", Role: enums.UserRoleConsumer},
	}}
	svc, _, _, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "oauth@example.com", Password: "anything"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for password-less account, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := &stubUserRepo{}
	svc, sessions, _, _ := buildTestService(t, repo)

	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-123" {
		t.Fatalf("expected session jti-123 to be revoked")
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	hash := mustHash(t, "old-password")
	user := &models.User{ID: uuid.New(), Username: "Asha", Email: "asha@example.com", PasswordHash: &hash}
	repo := &stubUserRepo{users: map[string]*models.User{user.Email: user}}
	svc, _, resets, mail := buildTestService(t, repo)

	if err := svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: user.Email}); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if mail.to != user.Email {
		t.Fatalf("expected reset mail to %s, got %s", user.Email, mail.to)
	}

	// Pull the raw token out of the mailed link.
	idx := strings.Index(mail.body, "token=")
	if idx < 0 {
		t.Fatalf("reset mail missing token link: %s", mail.body)
	}
	token := mail.body[idx+len("token="):]
	if end := strings.IndexAny(token, `"<`); end >= 0 {
		token = token[:end]
	}

	if err := svc.ConfirmPasswordReset(context.Background(), PasswordResetConfirm{Token: token, Password: "new-password-123"}); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if repo.newHash == "" {
		t.Fatalf("expected password hash to be updated")
	}
	if ok, _ := security.VerifyPassword("new-password-123", repo.newHash); !ok {
		t.Fatalf("stored hash does not match new password")
	}
	if len(resets.values) != 0 {
		t.Fatalf("expected reset token to be consumed")
	}

	// Second redemption fails.
	err := svc.ConfirmPasswordReset(context.Background(), PasswordResetConfirm{Token: token, Password: "another-pass"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on reused token, got %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	repo := &stubUserRepo{}
	svc, _, _, mail := buildTestService(t, repo)

	if err := svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if mail.to != "" {
		t.Fatalf("expected no mail for unknown account")
	}
}
