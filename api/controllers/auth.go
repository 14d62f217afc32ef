package controllers

import (
	"net/http"

	"github.com/shoply-app/shoply-backend/api/middleware"
	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/api/validators"
	"github.com/shoply-app/shoply-backend/internal/auth"
	pkgauth "github.com/shoply-app/shoply-backend/pkg/auth"
	"github.com/shoply-app/shoply-backend/pkg/config"
	pkgerrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// AuthRegister creates an account and dispatches the verification code.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input auth.RegisterInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Register(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// AuthVerifyOTP confirms the emailed code and opens the first session.
func AuthVerifyOTP(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input auth.VerifyOTPInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.VerifyOTP(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setSessionCookies(w, cfg, out)
		responses.WriteSuccess(w, out)
	}
}

type resendOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthResendOTP issues a fresh verification code.
func AuthResendOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload resendOTPPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ResendOTP(ctx, payload.Email); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "verification code sent"})
	}
}

// AuthLogin exchanges credentials for a cookie session.
func AuthLogin(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input auth.LoginInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Login(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setSessionCookies(w, cfg, out)
		responses.WriteSuccess(w, out)
	}
}

// AuthForgotPassword resets the password against a previously issued OTP.
func AuthForgotPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input auth.ForgotPasswordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ForgotPassword(ctx, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "password updated"})
	}
}

// AuthRefresh rotates the refresh token and reissues both cookies. The
// token is read from the cookie first so browsers need no body at all.
func AuthRefresh(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := refreshTokenFromRequest(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing refresh token"))
			return
		}

		out, err := svc.Refresh(ctx, token)
		if err != nil {
			pkgauth.ClearSessionCookies(cfg, w)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setSessionCookies(w, cfg, out)
		responses.WriteSuccess(w, out)
	}
}

// AuthLogout revokes the active session and clears both cookies.
func AuthLogout(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.Logout(ctx, middleware.AccessIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pkgauth.ClearSessionCookies(cfg, w)
		responses.WriteSuccess(w, map[string]string{"message": "logged out"})
	}
}

func setSessionCookies(w http.ResponseWriter, cfg config.JWTConfig, session *auth.SessionDTO) {
	http.SetCookie(w, pkgauth.NewAccessCookie(cfg, session.AccessToken))
	http.SetCookie(w, pkgauth.NewRefreshCookie(cfg, session.RefreshToken))
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(pkgauth.CookieRefreshToken); err == nil && c.Value != "" {
		return c.Value
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := validators.DecodeJSONBody(r, &payload); err == nil {
		return payload.RefreshToken
	}
	return ""
}
