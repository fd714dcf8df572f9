package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bazaar/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadProductToCloudinary uploads an image under a controlled public ID so
// re-uploads for the same product stay grouped in one folder.
func (app *application) uploadProductToCloudinary(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    "products",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// uploadProductImageHandler godoc
//
//	@Summary		Upload a product image
//	@Description	Accepts a multipart form with an "image" file, stores it in Cloudinary and records the URL on the product. Admin only.
//	@Tags			Products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path		int		true	"Product ID"
//	@Param			image		formData	file	true	"Image file"
//	@Success		200			{object}	store.Product
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/image [post]
func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Products.GetByID(r.Context(), productID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	const maxBytes = 15 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("missing image file: %w", err))
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf("product_%d_%d", productID, time.Now().UnixNano())
	imageURL, err := app.uploadProductToCloudinary(file, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Products.SetImage(r.Context(), productID, imageURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}
