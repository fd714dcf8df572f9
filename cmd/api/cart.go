package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bazaar/internal/store"

	"github.com/go-chi/chi/v5"
)

type UpdateCartQuantityPayload struct {
	Delta int `json:"delta" validate:"required"`
}

func (app *application) cartProductID(r *http.Request) (int64, error) {
	productIDStr := chi.URLParam(r, "productID")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID == 0 {
		return 0, fmt.Errorf("invalid productID")
	}
	return productID, nil
}

// AddToCart godoc
//
//	@Summary		Add a product to the cart
//	@Description	Inserts a cart line with quantity 1, or bumps the quantity if the product is already in the cart. Works for both anonymous and authenticated callers.
//	@Tags			Cart
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		201			{object}	cart.AddResult
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Product does not exist"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/{productID} [post]
func (app *application) addToCartHandler(w http.ResponseWriter, r *http.Request) {
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

	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	result, err := backend.Add(r.Context(), product)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateCartQuantity godoc
//
//	@Summary		Change a cart line's quantity
//	@Description	Applies an integer delta to an existing cart line. A resulting quantity of zero or below removes the line.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int							true	"Product ID"
//	@Param			payload		body		UpdateCartQuantityPayload	true	"Quantity delta"
//	@Success		200			{object}	cart.UpdateResult
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Product is not in the cart"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/{productID} [patch]
func (app *application) updateCartQuantityHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCartQuantityPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	result, err := backend.UpdateQuantity(r.Context(), productID, payload.Delta)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			// The count in the body is still current, so the client can keep
			// its badge in sync.
			if err := writeJSON(w, http.StatusNotFound, map[string]any{
				"success":    false,
				"message":    "product not found in cart",
				"cart_count": result.Count,
			}); err != nil {
				app.logger.Errorw("failed to write response", "method", r.Method, "path", r.URL.Path, "error", err.Error())
			}
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveFromCart godoc
//
//	@Summary		Remove a product from the cart
//	@Description	Removes the cart line. Removing a product that is not in the cart is not an error; the response reports removed=false.
//	@Tags			Cart
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	cart.RemoveResult
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/{productID} [delete]
func (app *application) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	result, err := backend.Remove(r.Context(), productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetCart godoc
//
//	@Summary		List the cart
//	@Description	Returns all cart lines with live catalog prices, the total price and the total count. Lines whose product no longer exists are dropped.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	cart.Summary
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	summary, err := backend.Items(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetCartCount godoc
//
//	@Summary		Get the cart count
//	@Description	Returns the sum of quantities across all cart lines.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart/count [get]
func (app *application) getCartCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	count, err := backend.Count(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"cart_count": count}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ClearCart godoc
//
//	@Summary		Clear the cart
//	@Description	Deletes every cart line for the caller's identity.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	userID, sid := app.identity(r)
	backend := app.carts.For(userID, sid)

	if err := backend.Clear(r.Context()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"cart_count": 0}); err != nil {
		app.internalServerError(w, r, err)
	}
}
