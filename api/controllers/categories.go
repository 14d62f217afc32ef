package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/api/validators"
	"github.com/shoply-app/shoply-backend/internal/categories"
	pkgerrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// CategoriesList serves the paginated category index with optional search.
func CategoriesList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.List(ctx, searchFromQuery(r), params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// CategoriesGet serves one category together with a page of its products.
func CategoriesGet(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Get(ctx, chi.URLParam(r, "id"), params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// CategoriesCreate handles the admin multipart form for a new category.
func CategoriesCreate(svc categories.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) * 1024 * 1024
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		input := categories.CreateInput{Title: r.FormValue("title")}
		if err := validators.ValidateStruct(&input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cover, closeCover, err := coverUpload(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer closeCover()

		out, err := svc.Create(ctx, adminID, input, cover)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// CategoriesUpdate applies a partial multipart edit to a category.
func CategoriesUpdate(svc categories.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) * 1024 * 1024
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		input := categories.UpdateInput{}
		if r.MultipartForm != nil {
			if raw, ok := formValue(r.MultipartForm.Value, "title"); ok {
				input.Title = &raw
			}
		}
		if err := validators.ValidateStruct(&input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cover, closeCover, err := coverUpload(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer closeCover()

		out, err := svc.Update(ctx, chi.URLParam(r, "id"), input, cover)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// CategoriesDelete removes an empty category and its cover file.
func CategoriesDelete(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "category deleted"})
	}
}

func coverUpload(r *http.Request) (*categories.ImageUpload, func(), error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["image"]) == 0 {
		return nil, func() {}, nil
	}

	header := r.MultipartForm.File["image"][0]
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file")
	}
	return &categories.ImageUpload{Filename: header.Filename, File: file},
		func() { _ = file.Close() }, nil
}
