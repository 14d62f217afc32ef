package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/internal/wishlist"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// WishlistToggle saves the product for the caller, or removes it when
// already saved.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Toggle(ctx, userID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// WishlistList serves the caller's paginated saved products.
func WishlistList(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.List(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
