package users

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/security"
)

type stubStore struct {
	users   map[uuid.UUID]*models.User
	updates map[uuid.UUID]map[string]any
}

func newStubStore() *stubStore {
	return &stubStore{users: map[uuid.UUID]*models.User{}, updates: map[uuid.UUID]map[string]any{}}
}

func (s *stubStore) add(user *models.User) *models.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return user
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.updates[id] = fields
	return nil
}

type stubSessions struct {
	revoked []string
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubMail struct {
	sent []string
}

func (s *stubMail) Send(_ context.Context, to, _, _ string) error {
	s.sent = append(s.sent, to)
	return nil
}

type stubFiles struct {
	saved   []string
	removed []string
}

func (s *stubFiles) Save(originalName string, _ io.Reader) (string, error) {
	path := "/upload/images/" + uuid.NewString() + "-" + originalName
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *stubFiles) Remove(publicPath string) error {
	s.removed = append(s.removed, publicPath)
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type fixture struct {
	svc      Service
	store    *stubStore
	sessions *stubSessions
	mail     *stubMail
	files    *stubFiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newStubStore(),
		sessions: &stubSessions{},
		mail:     &stubMail{},
		files:    &stubFiles{},
	}
	svc, err := NewService(ServiceParams{
		Store:    f.store,
		Sessions: f.sessions,
		Mail:     f.mail,
		Files:    f.files,
		Password: testPasswordConfig(),
		OTP:      config.OTPConfig{TTL: 5 * time.Minute, Digits: 6},
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) seedUser(t *testing.T, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return f.store.add(&models.User{
		Username:     "shopper",
		Email:        "shopper@example.com",
		PasswordHash: hash,
		BirthYear:    1990,
		Role:         enums.RoleUser,
		IsVerified:   true,
	})
}

func assertCode(t *testing.T, err error, want pkgErrors.Code) {
	t.Helper()

	typed := pkgErrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error with code %s, got %v", want, err)
	}
	if typed.Code() != want {
		t.Fatalf("expected code %s, got %s (%v)", want, typed.Code(), err)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetProfile(context.Background(), uuid.New())
	assertCode(t, err, pkgErrors.CodeNotFound)
}

func TestChangeUsernameConflict(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")
	f.store.add(&models.User{Username: "takenname", Email: "other@example.com", Role: enums.RoleUser})

	_, err := f.svc.ChangeUsername(context.Background(), user.ID, ChangeUsernameInput{Username: "takenname"})
	assertCode(t, err, pkgErrors.CodeConflict)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")

	err := f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "wrong-pass",
		NewPassword:     "a-new-password",
		ConfirmPassword: "a-new-password",
	})
	assertCode(t, err, pkgErrors.CodeUnauthorized)
}

func TestChangePasswordSameAsCurrent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")

	err := f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "supersecret",
		NewPassword:     "supersecret",
		ConfirmPassword: "supersecret",
	})
	assertCode(t, err, pkgErrors.CodeValidation)
}

func TestChangePasswordHappyPath(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")

	err := f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "supersecret",
		NewPassword:     "a-new-password",
		ConfirmPassword: "a-new-password",
	})
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	fields, ok := f.store.updates[user.ID]
	if !ok || fields["password_hash"] == nil {
		t.Fatal("expected a password_hash update")
	}
}

func TestChangeEmailRequiresCorrectPassword(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")

	err := f.svc.ChangeEmail(context.Background(), user.ID, "jti-1", ChangeEmailInput{
		NewEmail:        "next@example.com",
		Password:        "wrong-pass",
		NewPassword:     "a-new-password",
		ConfirmPassword: "a-new-password",
	})
	assertCode(t, err, pkgErrors.CodeUnauthorized)
}

func TestChangeEmailRevokesSessionAndResetsVerification(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")

	err := f.svc.ChangeEmail(context.Background(), user.ID, "jti-1", ChangeEmailInput{
		NewEmail:        "Next@Example.com",
		Password:        "supersecret",
		NewPassword:     "a-new-password",
		ConfirmPassword: "a-new-password",
	})
	if err != nil {
		t.Fatalf("ChangeEmail returned error: %v", err)
	}

	fields := f.store.updates[user.ID]
	if fields["email"] != "next@example.com" {
		t.Fatalf("expected normalized email update, got %v", fields["email"])
	}
	if fields["is_verified"] != false {
		t.Fatal("expected account to drop back to unverified")
	}
	if fields["otp"] == nil {
		t.Fatal("expected a fresh OTP")
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0] != "next@example.com" {
		t.Fatalf("expected OTP mail to the new address, got %v", f.mail.sent)
	}
	if len(f.sessions.revoked) != 1 || f.sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected session jti-1 revoked, got %v", f.sessions.revoked)
	}
}

func TestChangeEmailDuplicate(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")
	f.store.add(&models.User{Username: "other", Email: "next@example.com", Role: enums.RoleUser})

	err := f.svc.ChangeEmail(context.Background(), user.ID, "jti-1", ChangeEmailInput{
		NewEmail:        "next@example.com",
		Password:        "supersecret",
		NewPassword:     "a-new-password",
		ConfirmPassword: "a-new-password",
	})
	assertCode(t, err, pkgErrors.CodeConflict)
}

func TestChangeUserpicReplacesOldFile(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "supersecret")
	old := "/upload/images/old.png"
	user.Userpic = &old

	out, err := f.svc.ChangeUserpic(context.Background(), user.ID, "avatar.png", bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("ChangeUserpic returned error: %v", err)
	}
	if out.Userpic == nil || !strings.HasPrefix(*out.Userpic, "/upload/images/") {
		t.Fatalf("expected a stored userpic path, got %v", out.Userpic)
	}
	if len(f.files.removed) != 1 || f.files.removed[0] != old {
		t.Fatalf("expected old userpic removed, got %v", f.files.removed)
	}
}
