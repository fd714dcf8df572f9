package main

import (
	"errors"
	"net/http"
	"strconv"

	"bazaar/internal/store"
)

type CreateProductPayload struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Type        string  `json:"type" validate:"required,max=50"`
	Price       int64   `json:"price" validate:"required,gt=0"`
	Weight      float64 `json:"weight" validate:"gte=0"`
	CategoryID  *int64  `json:"category_id"`
}

type UpdateProductPayload struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Type        *string  `json:"type" validate:"omitempty,max=50"`
	Price       *int64   `json:"price" validate:"omitempty,gt=0"`
	Weight      *float64 `json:"weight" validate:"omitempty,gte=0"`
	CategoryID  *int64   `json:"category_id"`
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Returns catalog products, optionally filtered by category and type.
//	@Tags			Products
//	@Produce		json
//	@Param			category	query		int		false	"Category ID"
//	@Param			type		query		string	false	"Product type"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	[]store.Product
//	@Failure		500			{object}	error
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	var filter store.ProductFilter

	q := r.URL.Query()
	if raw := q.Get("category"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filter.CategoryID = &categoryID
	}
	filter.Type = q.Get("type")
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filter.Offset = offset
	}

	products, err := app.store.Products.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary		Get a product
//	@Description	Returns a single catalog product by ID.
//	@Tags			Products
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	store.Product
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), productID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Adds a product to the catalog. Admin only.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateProductPayload	true	"Product fields"
//	@Success		201		{object}	store.Product
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := &store.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Type:        payload.Type,
		Price:       payload.Price,
		Weight:      payload.Weight,
		CategoryID:  payload.CategoryID,
	}

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Description	Applies a partial update to a catalog product. Admin only.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"Product ID"
//	@Param			payload		body		UpdateProductPayload	true	"Fields to change"
//	@Success		200			{object}	store.Product
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := make(map[string]interface{})
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Type != nil {
		updates["type"] = *payload.Type
	}
	if payload.Price != nil {
		updates["price"] = *payload.Price
	}
	if payload.Weight != nil {
		updates["weight"] = *payload.Weight
	}
	if payload.CategoryID != nil {
		updates["category_id"] = *payload.CategoryID
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Products.Update(r.Context(), productID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
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
