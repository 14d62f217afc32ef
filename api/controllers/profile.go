package controllers

import (
	"net/http"

	"github.com/shoply-app/shoply-backend/api/middleware"
	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/api/validators"
	"github.com/shoply-app/shoply-backend/internal/users"
	pkgauth "github.com/shoply-app/shoply-backend/pkg/auth"
	"github.com/shoply-app/shoply-backend/pkg/config"
	pkgerrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// ProfileGet returns the authenticated user's profile.
func ProfileGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.GetProfile(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProfileChangeUsername renames the account.
func ProfileChangeUsername(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.ChangeUsernameInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.ChangeUsername(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProfileChangeBirthYear updates the stored birth year.
func ProfileChangeBirthYear(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.ChangeBirthYearInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.ChangeBirthYear(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProfileChangeAddress updates the default shipping address.
func ProfileChangeAddress(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.ChangeAddressInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.ChangeAddress(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProfileChangePassword rotates the password after re-checking the old one.
func ProfileChangePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.ChangePasswordInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ChangePassword(ctx, userID, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "password updated"})
	}
}

// ProfileChangeEmail moves the account to a new address. The session dies
// here: the cookies are cleared and the account must re-verify.
func ProfileChangeEmail(svc users.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.ChangeEmailInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ChangeEmail(ctx, userID, middleware.AccessIDFromContext(ctx), input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pkgauth.ClearSessionCookies(cfg, w)
		responses.WriteSuccess(w, map[string]string{"message": "verification code sent to the new address"})
	}
}

// ProfileChangeUserpic accepts a multipart upload and swaps the avatar.
func ProfileChangeUserpic(svc users.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) * 1024 * 1024
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("userpic")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "userpic file is required"))
			return
		}
		defer file.Close()

		out, err := svc.ChangeUserpic(ctx, userID, header.Filename, file)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
