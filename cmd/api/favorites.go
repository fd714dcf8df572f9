package main

import (
	"errors"
	"net/http"

	"bazaar/internal/store"
)

// ToggleFavorite godoc
//
//	@Summary		Toggle a favorite
//	@Description	Adds the product to the favorites set if absent, removes it if present. The response reports the resulting membership.
//	@Tags			Favorites
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	favorites.ToggleResult
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Product does not exist"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/favorites/{productID}/toggle [post]
func (app *application) toggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
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
	backend := app.favorites.For(userID, sid)

	result, err := backend.Toggle(r.Context(), product)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// AddFavorite godoc
//
//	@Summary		Add a favorite
//	@Description	Adds the product to the favorites set. Adding a product that is already a favorite is a no-op.
//	@Tags			Favorites
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	favorites.ToggleResult
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Product does not exist"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/favorites/{productID} [put]
func (app *application) addFavoriteHandler(w http.ResponseWriter, r *http.Request) {
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
	backend := app.favorites.For(userID, sid)

	result, err := backend.Add(r.Context(), product)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveFavorite godoc
//
//	@Summary		Remove a favorite
//	@Description	Removes the product from the favorites set. Removing a non-favorite is not an error; the response reports removed=false.
//	@Tags			Favorites
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	favorites.RemoveResult
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/favorites/{productID} [delete]
func (app *application) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := app.cartProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	userID, sid := app.identity(r)
	backend := app.favorites.For(userID, sid)

	result, err := backend.Remove(r.Context(), productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListFavorites godoc
//
//	@Summary		List favorites
//	@Description	Returns the favorite product IDs with their catalog entries. IDs whose product no longer exists are dropped.
//	@Tags			Favorites
//	@Produce		json
//	@Success		200	{object}	favorites.List
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/favorites [get]
func (app *application) listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, sid := app.identity(r)
	backend := app.favorites.For(userID, sid)

	list, err := backend.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ClearFavorites godoc
//
//	@Summary		Clear favorites
//	@Description	Removes every product from the favorites set.
//	@Tags			Favorites
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/favorites [delete]
func (app *application) clearFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, sid := app.identity(r)
	backend := app.favorites.For(userID, sid)

	if err := backend.Clear(r.Context()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"favorites_count": 0}); err != nil {
		app.internalServerError(w, r, err)
	}
}
