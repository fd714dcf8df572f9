package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaar/internal/cart"
	"bazaar/internal/store"
)

type fakeBackend struct {
	lines     map[int64]cart.Line
	removeErr error
	removed   []int64
}

func newFakeBackend(lines ...cart.Line) *fakeBackend {
	b := &fakeBackend{lines: make(map[int64]cart.Line)}
	for _, line := range lines {
		b.lines[line.ProductID] = line
	}
	return b
}

func (b *fakeBackend) Add(context.Context, *store.Product) (cart.AddResult, error) {
	panic("not used")
}

func (b *fakeBackend) UpdateQuantity(context.Context, int64, int) (cart.UpdateResult, error) {
	panic("not used")
}

func (b *fakeBackend) Remove(_ context.Context, productID int64) (cart.RemoveResult, error) {
	if b.removeErr != nil {
		return cart.RemoveResult{}, b.removeErr
	}
	_, ok := b.lines[productID]
	delete(b.lines, productID)
	b.removed = append(b.removed, productID)
	return cart.RemoveResult{Removed: ok, Count: len(b.lines)}, nil
}

func (b *fakeBackend) Items(context.Context) (*cart.Summary, error) {
	summary := &cart.Summary{}
	for _, line := range b.lines {
		summary.Lines = append(summary.Lines, line)
		summary.TotalPrice += line.LineTotal()
		summary.Count += line.Quantity
	}
	return summary, nil
}

func (b *fakeBackend) Count(context.Context) (int, error) {
	return len(b.lines), nil
}

func (b *fakeBackend) Clear(context.Context) error {
	b.lines = make(map[int64]cart.Line)
	return nil
}

type fakeOrders struct {
	created []*store.Order
	err     error
}

func (f *fakeOrders) Create(_ context.Context, order *store.Order) error {
	if f.err != nil {
		return f.err
	}
	order.ID = int64(len(f.created) + 1)
	order.Reference = "REF00001"
	f.created = append(f.created, order)
	return nil
}

func line(productID int64, quantity int, unitPrice int64) cart.Line {
	return cart.Line{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}
}

func TestPlaceOrder_FreezesSelectedLines(t *testing.T) {
	backend := newFakeBackend(
		line(1, 2, 1200),
		line(2, 1, 2500),
		line(3, 5, 100),
	)
	orders := &fakeOrders{}
	svc := NewService(orders, zap.NewNop().Sugar())

	order, err := svc.PlaceOrder(context.Background(), 7, backend, Input{
		Address:     "1 Main St",
		City:        "Springfield",
		SelectedIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	require.Len(t, orders.created, 1)
	assert.Equal(t, int64(7), order.UserID)
	assert.Equal(t, "1 Main St", order.Address)
	assert.Equal(t, "Springfield", order.City)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(2*1200+2500), order.TotalPrice())

	// Only the consumed lines were drained; product 3 stays in the cart.
	assert.ElementsMatch(t, []int64{1, 2}, backend.removed)
	_, stays := backend.lines[3]
	assert.True(t, stays)
}

func TestPlaceOrder_SkipsSelectedIDsNotInCart(t *testing.T) {
	backend := newFakeBackend(line(1, 1, 1200))
	orders := &fakeOrders{}
	svc := NewService(orders, zap.NewNop().Sugar())

	order, err := svc.PlaceOrder(context.Background(), 7, backend, Input{
		Address:     "1 Main St",
		City:        "Springfield",
		SelectedIDs: []int64{1, 99},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
}

func TestPlaceOrder_NothingToOrder(t *testing.T) {
	backend := newFakeBackend(line(1, 1, 1200))
	orders := &fakeOrders{}
	svc := NewService(orders, zap.NewNop().Sugar())

	order, err := svc.PlaceOrder(context.Background(), 7, backend, Input{
		Address:     "1 Main St",
		City:        "Springfield",
		SelectedIDs: []int64{98, 99},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNothingToOrder)
	assert.Nil(t, order)
	assert.Empty(t, orders.created)
}

func TestPlaceOrder_CreateFailureLeavesCartAlone(t *testing.T) {
	backend := newFakeBackend(line(1, 1, 1200))
	orders := &fakeOrders{err: errors.New("db down")}
	svc := NewService(orders, zap.NewNop().Sugar())

	_, err := svc.PlaceOrder(context.Background(), 7, backend, Input{
		Address:     "1 Main St",
		City:        "Springfield",
		SelectedIDs: []int64{1},
	})
	require.Error(t, err)
	assert.Empty(t, backend.removed)
	_, stays := backend.lines[1]
	assert.True(t, stays)
}

func TestPlaceOrder_DrainFailureStillReturnsOrder(t *testing.T) {
	backend := newFakeBackend(line(1, 1, 1200))
	backend.removeErr = errors.New("storage down")
	orders := &fakeOrders{}
	svc := NewService(orders, zap.NewNop().Sugar())

	order, err := svc.PlaceOrder(context.Background(), 7, backend, Input{
		Address:     "1 Main St",
		City:        "Springfield",
		SelectedIDs: []int64{1},
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, orders.created, 1)

	// The undrained line stays; a later remove converges.
	_, stays := backend.lines[1]
	assert.True(t, stays)
}
