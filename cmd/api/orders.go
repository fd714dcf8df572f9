package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bazaar/internal/checkout"
	"bazaar/internal/mailer"
	"bazaar/internal/store"

	"github.com/go-chi/chi/v5"
)

// formatPrice renders a price in cents as a decimal string for display.
func formatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// createOrderHandler godoc
//
//	@Summary		Place an order
//	@Description	Freezes the selected cart lines into an order, persists it, drains the consumed lines from the cart and sends a confirmation email.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		checkout.Input	true	"Delivery address and selected product IDs"
//	@Success		201		{object}	store.Order
//	@Failure		400		{object}	error	"No selected product is in the cart"
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders [post]
func (app *application) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload checkout.Input
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

	order, err := app.checkout.PlaceOrder(r.Context(), user.ID, backend, payload)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrNothingToOrder):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.background(func() {
		app.sendOrderConfirmation(user, order)
	})

	if err := app.jsonResponse(w, http.StatusCreated, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) sendOrderConfirmation(user *store.User, order *store.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ids := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := app.store.Products.GetMany(ctx, ids)
	if err != nil {
		app.logger.Errorw("failed to load products for confirmation email",
			"order_id", order.ID, "error", err)
		return
	}

	type itemVars struct {
		Name     string
		Quantity int
		Price    string
	}
	items := make([]itemVars, 0, len(order.Items))
	for _, item := range order.Items {
		name := "(no longer available)"
		if p, ok := products[item.ProductID]; ok {
			name = p.Name
		}
		items = append(items, itemVars{
			Name:     name,
			Quantity: item.Quantity,
			Price:    formatPrice(item.UnitPrice * int64(item.Quantity)),
		})
	}

	vars := map[string]any{
		"Username":  user.FirstName,
		"Reference": order.Reference,
		"Items":     items,
		"Total":     formatPrice(order.TotalPrice()),
		"Address":   order.Address,
		"City":      order.City,
	}

	status, err := app.mailer.Send(mailer.OrderConfirmationTemplate, user.FirstName, user.Email, vars)
	if err != nil {
		app.logger.Errorw("failed to send order confirmation email",
			"order_id", order.ID, "email", user.Email, "error", err)
		return
	}
	app.logger.Infow("order confirmation email sent", "order_id", order.ID, "status", status)
}

// listOrdersHandler godoc
//
//	@Summary		List orders
//	@Description	Returns the authenticated user's orders, newest first, with their items.
//	@Tags			Orders
//	@Produce		json
//	@Success		200	{object}	[]store.Order
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders [get]
func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	orders, err := app.store.Orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getOrderHandler godoc
//
//	@Summary		Get an order
//	@Description	Returns one of the authenticated user's orders with its items.
//	@Tags			Orders
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	store.Order
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders/{orderID} [get]
func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	order, err := app.store.Orders.GetByID(r.Context(), user.ID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}
