package cart

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaar/internal/store"
)

type fakeItemsStore struct {
	items     map[int64]map[int64]int // userID -> productID -> quantity
	mergeErr  error
	mergeLogs [][]store.MergeLine
}

func newFakeItemsStore() *fakeItemsStore {
	return &fakeItemsStore{items: make(map[int64]map[int64]int)}
}

func (f *fakeItemsStore) user(userID int64) map[int64]int {
	if f.items[userID] == nil {
		f.items[userID] = make(map[int64]int)
	}
	return f.items[userID]
}

// set mirrors the cart_items CHECK (quantity > 0) constraint: a write that
// would store a non-positive quantity is a contract violation, not a delete.
func (f *fakeItemsStore) set(userID, productID int64, quantity int) {
	if quantity <= 0 {
		panic("fakeItemsStore: non-positive quantity violates cart_items check constraint")
	}
	f.user(userID)[productID] = quantity
}

func (f *fakeItemsStore) Add(_ context.Context, userID, productID int64) error {
	f.set(userID, productID, f.user(userID)[productID]+1)
	return nil
}

func (f *fakeItemsStore) AdjustQuantity(_ context.Context, userID, productID int64, delta int) (int, error) {
	lines := f.user(userID)
	quantity, ok := lines[productID]
	if !ok {
		return 0, store.ErrNotFound
	}
	// Delete-first, like the real store: a line crossing zero is removed
	// without ever writing a value the check constraint would reject.
	if quantity+delta <= 0 {
		delete(lines, productID)
		return 0, nil
	}
	f.set(userID, productID, quantity+delta)
	return quantity + delta, nil
}

func (f *fakeItemsStore) Remove(_ context.Context, userID, productID int64) (bool, error) {
	lines := f.user(userID)
	if _, ok := lines[productID]; !ok {
		return false, nil
	}
	delete(lines, productID)
	return true, nil
}

func (f *fakeItemsStore) RemoveMany(_ context.Context, userID int64, productIDs []int64) error {
	lines := f.user(userID)
	for _, id := range productIDs {
		delete(lines, id)
	}
	return nil
}

func (f *fakeItemsStore) ListByUser(_ context.Context, userID int64) ([]store.CartItem, error) {
	lines := f.user(userID)
	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]store.CartItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, store.CartItem{UserID: userID, ProductID: id, Quantity: lines[id]})
	}
	return items, nil
}

func (f *fakeItemsStore) SumQuantities(_ context.Context, userID int64) (int, error) {
	var sum int
	for _, q := range f.user(userID) {
		sum += q
	}
	return sum, nil
}

func (f *fakeItemsStore) MergeLines(_ context.Context, userID int64, lines []store.MergeLine) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.mergeLogs = append(f.mergeLogs, lines)
	for _, line := range lines {
		f.set(userID, line.ProductID, f.user(userID)[line.ProductID]+line.Quantity)
	}
	return nil
}

func (f *fakeItemsStore) Clear(_ context.Context, userID int64) error {
	f.items[userID] = make(map[int64]int)
	return nil
}

func setupDatabaseBackend(catalog *fakeCatalog) (*DatabaseBackend, *fakeItemsStore) {
	items := newFakeItemsStore()
	return NewDatabaseBackend(items, catalog, 7, zap.NewNop().Sugar()), items
}

func TestDatabaseBackend_Add(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, items := setupDatabaseBackend(catalog)

	result, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	result, err = backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, items.items[7][1])
}

func TestDatabaseBackend_UpdateQuantity_MissingLine(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupDatabaseBackend(catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	result, err := backend.UpdateQuantity(context.Background(), 99, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, result.Count)
}

func TestDatabaseBackend_UpdateQuantity_DeletesAtZero(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, items := setupDatabaseBackend(catalog)

	for i := 0; i < 3; i++ {
		_, err := backend.Add(context.Background(), catalog.products[1])
		require.NoError(t, err)
	}

	// A quantity-3 line taking a -5 delta crosses zero: the line is deleted
	// rather than updated to a negative quantity.
	result, err := backend.UpdateQuantity(context.Background(), 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Quantity)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, items.items[7])
}

func TestDatabaseBackend_UpdateQuantity_DecrementKeepsLine(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, items := setupDatabaseBackend(catalog)

	for i := 0; i < 3; i++ {
		_, err := backend.Add(context.Background(), catalog.products[1])
		require.NoError(t, err)
	}

	result, err := backend.UpdateQuantity(context.Background(), 1, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Quantity)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, items.items[7][1])
}

func TestDatabaseBackend_Remove(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupDatabaseBackend(catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	result, err := backend.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.Equal(t, 0, result.Count)

	result, err = backend.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Removed)
}

func TestDatabaseBackend_Items_DropsOrphanedRows(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	backend, items := setupDatabaseBackend(catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	delete(catalog.products, 2)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, int64(1), summary.Lines[0].ProductID)

	// The orphaned row was removed from storage too.
	_, ok := items.items[7][2]
	assert.False(t, ok)
}

func TestDatabaseBackend_Items_LivePrices(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupDatabaseBackend(catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	catalog.products[1] = testProduct(1, "Mug", 999)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, int64(999), summary.Lines[0].UnitPrice)
	assert.Equal(t, int64(999), summary.TotalPrice)
}

func TestDatabaseBackend_Clear(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupDatabaseBackend(catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	require.NoError(t, backend.Clear(context.Background()))

	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSelector_For(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{}}
	selector := NewSelector(nil, newFakeItemsStore(), catalog, zap.NewNop().Sugar())

	_, isDB := selector.For(7, "sid-1").(*DatabaseBackend)
	assert.True(t, isDB)

	_, isSession := selector.For(0, "sid-1").(*SessionBackend)
	assert.True(t, isSession)
}

var errStorage = errors.New("storage down")
