package users

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/mailer"
	"github.com/shoply-app/shoply-backend/pkg/security"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type sessionRevoker interface {
	Revoke(ctx context.Context, accessID string) error
}

type fileStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(publicPath string) error
}

// Service owns profile reads and the self-service account mutations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	ChangeUsername(ctx context.Context, userID uuid.UUID, input ChangeUsernameInput) (*UserDTO, error)
	ChangeBirthYear(ctx context.Context, userID uuid.UUID, input ChangeBirthYearInput) (*UserDTO, error)
	ChangeAddress(ctx context.Context, userID uuid.UUID, input ChangeAddressInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	ChangeEmail(ctx context.Context, userID uuid.UUID, accessID string, input ChangeEmailInput) error
	ChangeUserpic(ctx context.Context, userID uuid.UUID, filename string, file io.Reader) (*UserDTO, error)
}

// ServiceParams lists the collaborators the users service needs.
type ServiceParams struct {
	Store    userStore
	Sessions sessionRevoker
	Mail     mailer.Sender
	Files    fileStore
	Password config.PasswordConfig
	OTP      config.OTPConfig
}

type service struct {
	store    userStore
	sessions sessionRevoker
	mail     mailer.Sender
	files    fileStore
	password config.PasswordConfig
	otp      config.OTPConfig
	now      func() time.Time
}

// NewService validates dependencies and constructs the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session revoker is required")
	}
	if params.Mail == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store is required")
	}

	return &service{
		store:    params.Store,
		sessions: params.Sessions,
		mail:     params.Mail,
		files:    params.Files,
		password: params.Password,
		otp:      params.OTP,
		now:      time.Now,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := NewUserDTO(user)
	return &dto, nil
}

func (s *service) ChangeUsername(ctx context.Context, userID uuid.UUID, input ChangeUsernameInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == user.Username {
		dto := NewUserDTO(user)
		return &dto, nil
	}

	if existing, err := s.store.FindByUsername(ctx, username); err == nil && existing.ID != userID {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "username already in use")
	} else if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking username uniqueness")
	}

	if err := s.store.UpdateFields(ctx, userID, map[string]any{"username": username}); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating username")
	}
	user.Username = username
	dto := NewUserDTO(user)
	return &dto, nil
}

func (s *service) ChangeBirthYear(ctx context.Context, userID uuid.UUID, input ChangeBirthYearInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateFields(ctx, userID, map[string]any{"birth_year": input.BirthYear}); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating birth year")
	}
	user.BirthYear = input.BirthYear
	dto := NewUserDTO(user)
	return &dto, nil
}

func (s *service) ChangeAddress(ctx context.Context, userID uuid.UUID, input ChangeAddressInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(input.Address)
	if err := s.store.UpdateFields(ctx, userID, map[string]any{"address": address}); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating address")
	}
	user.Address = &address
	dto := NewUserDTO(user)
	return &dto, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	match, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "verifying password")
	}
	if !match {
		return pkgErrors.New(pkgErrors.CodeUnauthorized, "current password is incorrect")
	}
	if input.NewPassword == input.CurrentPassword {
		return pkgErrors.New(pkgErrors.CodeValidation, "new password must differ from the current one")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "hashing password")
	}

	if err := s.store.UpdateFields(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating password")
	}
	return nil
}

// ChangeEmail re-verifies the account: the new address gets an OTP, the row
// flips back to unverified, and the active session is revoked so the client
// has to log in again after confirming the new address.
func (s *service) ChangeEmail(ctx context.Context, userID uuid.UUID, accessID string, input ChangeEmailInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "verifying password")
	}
	if !match {
		return pkgErrors.New(pkgErrors.CodeUnauthorized, "password is incorrect")
	}

	email := strings.ToLower(strings.TrimSpace(input.NewEmail))
	if email == user.Email {
		return pkgErrors.New(pkgErrors.CodeValidation, "new email must differ from the current one")
	}
	if existing, err := s.store.FindByEmail(ctx, email); err == nil && existing.ID != userID {
		return pkgErrors.New(pkgErrors.CodeConflict, "email already in use")
	} else if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking email uniqueness")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "hashing password")
	}

	code, err := security.GenerateOTP(s.otp.Digits)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "generating verification code")
	}
	expiresAt := s.now().Add(s.otp.TTL)

	fields := map[string]any{
		"email":          email,
		"password_hash":  hash,
		"is_verified":    false,
		"otp":            code,
		"otp_expires_at": expiresAt,
	}
	if err := s.store.UpdateFields(ctx, userID, fields); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating email")
	}

	ttlMinutes := int(s.otp.TTL.Minutes())
	if err := s.mail.Send(ctx, email, "Confirm your new Shoply email", mailer.OTPBody(code, ttlMinutes)); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDependency, err, "sending verification email")
	}

	if strings.TrimSpace(accessID) != "" {
		if err := s.sessions.Revoke(ctx, accessID); err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDependency, err, "revoking session")
		}
	}
	return nil
}

func (s *service) ChangeUserpic(ctx context.Context, userID uuid.UUID, filename string, file io.Reader) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Save(filename, file)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeValidation, err, "storing userpic")
	}

	if err := s.store.UpdateFields(ctx, userID, map[string]any{"userpic": path}); err != nil {
		_ = s.files.Remove(path)
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating userpic")
	}

	if user.Userpic != nil {
		_ = s.files.Remove(*user.Userpic)
	}
	user.Userpic = &path
	dto := NewUserDTO(user)
	return &dto, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "user not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading user")
	}
	return user, nil
}
