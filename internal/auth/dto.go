package auth

import (
	users "github.com/shoply-app/shoply-backend/internal/users"
)

// RegisterInput carries the signup payload.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	BirthYear int    `json:"birth_year" validate:"required,gte=1900,lte=2100"`
}

// VerifyOTPInput confirms ownership of an email address.
type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

// LoginInput carries credentials for an existing account.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordInput resets a password using a previously issued OTP.
type ForgotPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// SessionDTO is returned whenever a login session is (re)issued. The
// controller turns the tokens into httpOnly cookies; AccessID is the jti
// shared by both tokens and keys the Redis session entry.
type SessionDTO struct {
	User         users.UserDTO `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	AccessID     string        `json:"-"`
}

// RegisteredDTO acknowledges a signup that still awaits verification.
type RegisteredDTO struct {
	User    users.UserDTO `json:"user"`
	Message string        `json:"message"`
}
