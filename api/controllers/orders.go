package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/api/validators"
	"github.com/shoply-app/shoply-backend/internal/orders"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// OrdersPlace reserves stock and creates a pending order.
func OrdersPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input orders.PlaceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Place(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// OrdersListMine serves the caller's paginated order history.
func OrdersListMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		out, err := svc.ListMine(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// OrdersCancel cancels a pending order and returns its stock.
func OrdersCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Cancel(ctx, userID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// OrdersMarkDelivered confirms receipt of a pending order.
func OrdersMarkDelivered(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.MarkDelivered(ctx, userID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// OrdersAmendAddress rewrites the delivery address of a pending order.
func OrdersAmendAddress(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input orders.AmendAddressInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.AmendAddress(ctx, userID, chi.URLParam(r, "id"), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// OrdersAmendPaymentMethod rewrites the payment method of a pending order.
func OrdersAmendPaymentMethod(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input orders.AmendPaymentMethodInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.AmendPaymentMethod(ctx, userID, chi.URLParam(r, "id"), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
