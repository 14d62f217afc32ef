package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/api/middleware"
	"github.com/shoply-app/shoply-backend/api/validators"
	pkgerrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

const maxSearchLen = 128

// paginationFromQuery parses page/limit query params, rejecting garbage.
func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 0, 1, 100000)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}

	return pagination.Normalize(pagination.Params{Page: page, Limit: limit}), nil
}

// searchFromQuery trims and bounds the optional search term.
func searchFromQuery(r *http.Request) string {
	return validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen)
}

// currentUserID pulls the authenticated user out of the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
