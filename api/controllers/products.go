package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoply-app/shoply-backend/api/responses"
	"github.com/shoply-app/shoply-backend/api/validators"
	"github.com/shoply-app/shoply-backend/internal/products"
	pkgerrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// ProductsList serves the paginated catalog with optional search.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
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

// ProductsGet serves a single product by id.
func ProductsGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductsCreate handles the admin multipart form for a new listing.
func ProductsCreate(svc products.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
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

		input, err := productCreateFromForm(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.ValidateStruct(input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		uploads, closeUploads, err := imageUploads(r, "images")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer closeUploads()

		out, err := svc.Create(ctx, adminID, *input, uploads)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// ProductsUpdate applies a partial multipart edit to a listing.
func ProductsUpdate(svc products.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) * 1024 * 1024
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		input, err := productUpdateFromForm(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.ValidateStruct(input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		uploads, closeUploads, err := imageUploads(r, "images")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer closeUploads()

		out, err := svc.Update(ctx, chi.URLParam(r, "id"), *input, uploads)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductsDelete removes a listing and its image files.
func ProductsDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "product deleted"})
	}
}

func productCreateFromForm(r *http.Request) (*products.CreateInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number")
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a non-negative integer")
	}

	categoryID, err := uuid.Parse(strings.TrimSpace(r.FormValue("category_id")))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a valid id")
	}

	return &products.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Quantity:    quantity,
		CategoryID:  categoryID,
	}, nil
}

func productUpdateFromForm(r *http.Request) (*products.UpdateInput, error) {
	input := &products.UpdateInput{}
	if r.MultipartForm == nil {
		return input, nil
	}
	values := r.MultipartForm.Value

	if raw, ok := formValue(values, "title"); ok {
		input.Title = &raw
	}
	if raw, ok := formValue(values, "description"); ok {
		input.Description = &raw
	}
	if raw, ok := formValue(values, "price"); ok {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number")
		}
		input.Price = &price
	}
	if raw, ok := formValue(values, "quantity"); ok {
		quantity, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a non-negative integer")
		}
		input.Quantity = &quantity
	}
	if raw, ok := formValue(values, "category_id"); ok {
		categoryID, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a valid id")
		}
		input.CategoryID = &categoryID
	}
	return input, nil
}

func formValue(values map[string][]string, key string) (string, bool) {
	if list, ok := values[key]; ok && len(list) > 0 {
		return list[0], true
	}
	return "", false
}

// imageUploads opens every file under the field name and hands back a
// cleanup func closing them after the service consumed the readers.
func imageUploads(r *http.Request, field string) ([]products.ImageUpload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]products.ImageUpload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file")
		}
		opened = append(opened, file)
		uploads = append(uploads, products.ImageUpload{Filename: header.Filename, File: file})
	}
	return uploads, closeAll, nil
}
