package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	users "github.com/shoply-app/shoply-backend/internal/users"
	pkgauth "github.com/shoply-app/shoply-backend/pkg/auth"
	"github.com/shoply-app/shoply-backend/pkg/auth/session"
	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/db"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/mailer"
	"github.com/shoply-app/shoply-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	otpSubject                = "Your Shoply verification code"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type sessionManager interface {
	Store(ctx context.Context, accessID, refreshToken string) error
	Rotate(ctx context.Context, oldAccessID, provided, newAccessID, newRefreshToken string) error
	Revoke(ctx context.Context, accessID string) error
}

// Service owns the account lifecycle: signup, OTP verification, login,
// password recovery, and session rotation.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RegisteredDTO, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*SessionDTO, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, input LoginInput) (*SessionDTO, error)
	ForgotPassword(ctx context.Context, input ForgotPasswordInput) error
	Refresh(ctx context.Context, refreshToken string) (*SessionDTO, error)
	Logout(ctx context.Context, accessID string) error
}

// ServiceParams lists the collaborators the auth service needs.
type ServiceParams struct {
	Users    userStore
	Sessions sessionManager
	Mail     mailer.Sender
	JWT      config.JWTConfig
	Password config.PasswordConfig
	OTP      config.OTPConfig
}

type service struct {
	users    userStore
	sessions sessionManager
	mail     mailer.Sender
	jwt      config.JWTConfig
	password config.PasswordConfig
	otp      config.OTPConfig
	now      func() time.Time
}

// NewService validates dependencies and constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Mail == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if params.JWT.AccessSecret == "" || params.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets are required")
	}
	if params.OTP.Digits <= 0 || params.OTP.TTL <= 0 {
		return nil, fmt.Errorf("otp config is required")
	}

	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		mail:     params.Mail,
		jwt:      params.JWT,
		password: params.Password,
		otp:      params.OTP,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisteredDTO, error) {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "email already in use")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking email uniqueness")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "username already in use")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking username uniqueness")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "hashing password")
	}

	code, expiresAt, err := s.newOTP()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		BirthYear:    input.BirthYear,
		Role:         enums.RoleUser,
		IsVerified:   false,
		OTP:          &code,
		OTPExpiresAt: &expiresAt,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "email or username already in use")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "creating user")
	}

	if err := s.dispatchOTP(ctx, created.Email, code); err != nil {
		return nil, err
	}

	dto := users.NewUserDTO(created)
	return &RegisteredDTO{
		User:    dto,
		Message: "verification code sent",
	}, nil
}

func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*SessionDTO, error) {
	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if err := s.checkOTP(user, input.OTP); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"is_verified":    true,
		"otp":            nil,
		"otp_expires_at": nil,
	}
	if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "marking user verified")
	}
	user.IsVerified = true
	user.OTP = nil
	user.OTPExpiresAt = nil

	return s.issueSession(ctx, user)
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgErrors.New(pkgErrors.CodeUnauthorized, "no account for this email")
		}
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading user")
	}

	code, expiresAt, err := s.newOTP()
	if err != nil {
		return err
	}

	fields := map[string]any{
		"otp":            code,
		"otp_expires_at": expiresAt,
	}
	if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "storing verification code")
	}

	return s.dispatchOTP(ctx, user.Email, code)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*SessionDTO, error) {
	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "verifying password")
	}
	if !match {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsVerified {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "account is not verified")
	}

	return s.issueSession(ctx, user)
}

func (s *service) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return pkgErrors.New(pkgErrors.CodeUnauthorized, "account is not verified")
	}

	if err := s.checkOTP(user, input.OTP); err != nil {
		return err
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "hashing password")
	}

	fields := map[string]any{
		"password_hash":  hash,
		"otp":            nil,
		"otp_expires_at": nil,
	}
	if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating password")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*SessionDTO, error) {
	claims, err := pkgauth.ParseRefreshToken(s.jwt, refreshToken)
	if err != nil {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading user")
	}

	newID := session.NewAccessID()
	access, refresh, err := s.mintPair(user, newID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Rotate(ctx, claims.ID, refreshToken, newID, refresh); err != nil {
		if stdErrors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDependency, err, "rotating session")
	}

	dto := users.NewUserDTO(user)
	return &SessionDTO{User: dto, AccessToken: access, RefreshToken: refresh, AccessID: newID}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgErrors.New(pkgErrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "user not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) checkOTP(user *models.User, provided string) error {
	if user.OTP == nil || user.OTPExpiresAt == nil {
		return pkgErrors.New(pkgErrors.CodeValidation, "no verification code pending")
	}
	if s.now().After(*user.OTPExpiresAt) {
		return pkgErrors.New(pkgErrors.CodeValidation, "verification code expired")
	}
	if *user.OTP != strings.TrimSpace(provided) {
		return pkgErrors.New(pkgErrors.CodeValidation, "wrong verification code")
	}
	return nil
}

func (s *service) newOTP() (string, time.Time, error) {
	code, err := security.GenerateOTP(s.otp.Digits)
	if err != nil {
		return "", time.Time{}, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "generating verification code")
	}
	return code, s.now().Add(s.otp.TTL), nil
}

func (s *service) dispatchOTP(ctx context.Context, email, code string) error {
	ttlMinutes := int(s.otp.TTL.Minutes())
	if err := s.mail.Send(ctx, email, otpSubject, mailer.OTPBody(code, ttlMinutes)); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDependency, err, "sending verification email")
	}
	return nil
}

func (s *service) issueSession(ctx context.Context, user *models.User) (*SessionDTO, error) {
	accessID := session.NewAccessID()
	access, refresh, err := s.mintPair(user, accessID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Store(ctx, accessID, refresh); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDependency, err, "storing session")
	}

	dto := users.NewUserDTO(user)
	return &SessionDTO{User: dto, AccessToken: access, RefreshToken: refresh, AccessID: accessID}, nil
}

func (s *service) mintPair(user *models.User, accessID string) (string, string, error) {
	payload := pkgauth.TokenPayload{UserID: user.ID, Role: user.Role, JTI: accessID}

	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), payload)
	if err != nil {
		return "", "", pkgErrors.Wrap(pkgErrors.CodeInternal, err, "minting access token")
	}
	refresh, err := pkgauth.MintRefreshToken(s.jwt, s.now(), payload)
	if err != nil {
		return "", "", pkgErrors.Wrap(pkgErrors.CodeInternal, err, "minting refresh token")
	}
	return access, refresh, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
