package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaar/internal/session"
	"bazaar/internal/store"
)

type fakeCatalog struct {
	products map[int64]*store.Product
}

func (c *fakeCatalog) GetByID(_ context.Context, id int64) (*store.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (c *fakeCatalog) GetMany(_ context.Context, ids []int64) (map[int64]*store.Product, error) {
	out := make(map[int64]*store.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testProduct(id int64, name string, price int64) *store.Product {
	return &store.Product{ID: id, Name: name, Type: "standard", Price: price}
}

func setupSessionBackend(t *testing.T, catalog *fakeCatalog) (*SessionBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sessions := session.New(client, 24*time.Hour)
	return NewSessionBackend(sessions, catalog, "sid-1", zap.NewNop().Sugar()), mr
}

func TestSessionBackend_Add_NewLine(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	result, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, int64(1), summary.Lines[0].ProductID)
	assert.Equal(t, 1, summary.Lines[0].Quantity)
	assert.Equal(t, int64(1200), summary.Lines[0].UnitPrice)
	assert.Equal(t, "Mug", summary.Lines[0].Name)
}

func TestSessionBackend_Add_IncrementsExistingLine(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	result, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 2, summary.Lines[0].Quantity)
}

func TestSessionBackend_UpdateQuantity(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	result, err := backend.UpdateQuantity(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Quantity)
	assert.Equal(t, 5, result.Count)
}

func TestSessionBackend_UpdateQuantity_DeletesAtZero(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	result, err := backend.UpdateQuantity(context.Background(), 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Quantity)
	assert.Equal(t, 0, result.Count)

	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSessionBackend_UpdateQuantity_MissingLine(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	result, err := backend.UpdateQuantity(context.Background(), 99, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	// The count still reflects the untouched cart.
	assert.Equal(t, 1, result.Count)
}

func TestSessionBackend_Remove(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	result, err := backend.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.Equal(t, 1, result.Count)

	// Removing again is a no-op, not an error.
	result, err = backend.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Removed)
	assert.Equal(t, 1, result.Count)
}

func TestSessionBackend_Items_LivePrices(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	// Reprice after the line was snapshotted into the session.
	catalog.products[1] = testProduct(1, "Mug", 1500)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, int64(1500), summary.Lines[0].UnitPrice)
	assert.Equal(t, int64(1500), summary.TotalPrice)
}

func TestSessionBackend_Items_DropsMissingProducts(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	delete(catalog.products, 2)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, int64(1), summary.Lines[0].ProductID)
	assert.Equal(t, 1, summary.Count)

	// The drop is persisted, not just filtered from the listing.
	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionBackend_Items_TotalsAndOrdering(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	backend, _ := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	summary, err := backend.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, int64(1), summary.Lines[0].ProductID)
	assert.Equal(t, int64(2), summary.Lines[1].ProductID)
	assert.Equal(t, int64(2*1200+2500), summary.TotalPrice)
	assert.Equal(t, 3, summary.Count)
}

func TestSessionBackend_Clear(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	backend, mr := setupSessionBackend(t, catalog)

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:sid-1:cart"))

	require.NoError(t, backend.Clear(context.Background()))
	assert.False(t, mr.Exists("session:sid-1:cart"))

	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
