// Package checkout converts selected cart lines into a persisted order and
// drains the consumed lines from whichever cart backend is active.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bazaar/internal/cart"
	"bazaar/internal/store"
)

// ErrNothingToOrder means none of the selected products were present in the
// cart.
var ErrNothingToOrder = errors.New("no selected products in cart")

// OrdersStore is the slice of order persistence the service needs.
type OrdersStore interface {
	Create(ctx context.Context, order *store.Order) error
}

// Input carries the checkout form.
type Input struct {
	Address     string  `json:"address" validate:"required,max=100"`
	City        string  `json:"city" validate:"required,max=100"`
	SelectedIDs []int64 `json:"selected_ids" validate:"required,min=1"`
}

type Service struct {
	orders OrdersStore
	logger *zap.SugaredLogger
}

func NewService(orders OrdersStore, logger *zap.SugaredLogger) *Service {
	return &Service{
		orders: orders,
		logger: logger,
	}
}

// PlaceOrder reads the cart once, freezes the listed price and quantity of
// every selected line into order items, persists the order and its lines in
// one transaction, then removes the consumed lines from the cart.
//
// Selected ids with no cart line are logged and skipped, never fatal. The
// drain runs after the order transaction and relies on Remove being
// idempotent: a retry after a partial drain converges instead of failing.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, backend cart.Backend, in Input) (*store.Order, error) {
	summary, err := backend.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	byID := make(map[int64]cart.Line, len(summary.Lines))
	for _, line := range summary.Lines {
		byID[line.ProductID] = line
	}

	items := make([]store.OrderItem, 0, len(in.SelectedIDs))
	for _, id := range in.SelectedIDs {
		line, ok := byID[id]
		if !ok {
			s.logger.Warnw("selected product not in cart", "product_id", id, "user_id", userID)
			continue
		}
		items = append(items, store.OrderItem{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, ErrNothingToOrder
	}

	order := &store.Order{
		UserID:  userID,
		Address: in.Address,
		City:    in.City,
		Items:   items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, item := range items {
		if _, err := backend.Remove(ctx, item.ProductID); err != nil {
			// The order is already placed; the leftover line stays visible in
			// the cart and a later remove converges.
			s.logger.Errorw("failed to drain cart line after checkout",
				"product_id", item.ProductID, "order_id", order.ID, "error", err)
		}
	}

	return order, nil
}
