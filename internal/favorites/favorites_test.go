package favorites

import (
	"context"
	"errors"
	"sort"
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

func (c *fakeCatalog) GetMany(_ context.Context, ids []int64) (map[int64]*store.Product, error) {
	out := make(map[int64]*store.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeSetStore struct {
	sets    map[int64]map[int64]struct{} // userID -> productID set
	bulkErr error
}

func newFakeSetStore() *fakeSetStore {
	return &fakeSetStore{sets: make(map[int64]map[int64]struct{})}
}

func (f *fakeSetStore) user(userID int64) map[int64]struct{} {
	if f.sets[userID] == nil {
		f.sets[userID] = make(map[int64]struct{})
	}
	return f.sets[userID]
}

func (f *fakeSetStore) Add(_ context.Context, userID, productID int64) (bool, error) {
	set := f.user(userID)
	if _, ok := set[productID]; ok {
		return false, nil
	}
	set[productID] = struct{}{}
	return true, nil
}

func (f *fakeSetStore) Remove(_ context.Context, userID, productID int64) (bool, error) {
	set := f.user(userID)
	if _, ok := set[productID]; !ok {
		return false, nil
	}
	delete(set, productID)
	return true, nil
}

func (f *fakeSetStore) Exists(_ context.Context, userID, productID int64) (bool, error) {
	_, ok := f.user(userID)[productID]
	return ok, nil
}

func (f *fakeSetStore) ListIDs(_ context.Context, userID int64) ([]int64, error) {
	set := f.user(userID)
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeSetStore) Count(_ context.Context, userID int64) (int, error) {
	return len(f.user(userID)), nil
}

func (f *fakeSetStore) BulkAdd(_ context.Context, userID int64, productIDs []int64) (int, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	set := f.user(userID)
	var created int
	for _, id := range productIDs {
		if _, ok := set[id]; !ok {
			set[id] = struct{}{}
			created++
		}
	}
	return created, nil
}

func (f *fakeSetStore) Clear(_ context.Context, userID int64) error {
	f.sets[userID] = make(map[int64]struct{})
	return nil
}

func testProduct(id int64, name string, price int64) *store.Product {
	return &store.Product{ID: id, Name: name, Type: "standard", Price: price}
}

func setupSelector(t *testing.T, catalog *fakeCatalog) (*Selector, *fakeSetStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	set := newFakeSetStore()
	selector := NewSelector(session.New(client, 24*time.Hour), set, catalog, zap.NewNop().Sugar())
	return selector, set, mr
}

func TestSessionBackend_Toggle(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, _, _ := setupSelector(t, catalog)
	backend := selector.For(0, "sid-1")

	result, err := backend.Toggle(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.True(t, result.IsFavorite)
	assert.Equal(t, 1, result.Count)

	// Toggling again flips it off.
	result, err = backend.Toggle(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.False(t, result.IsFavorite)
	assert.Equal(t, 0, result.Count)
}

func TestSessionBackend_Add_Idempotent(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, _, _ := setupSelector(t, catalog)
	backend := selector.For(0, "sid-1")

	result, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.True(t, result.IsFavorite)
	assert.Equal(t, 1, result.Count)

	result, err = backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.True(t, result.IsFavorite)
	assert.Equal(t, 1, result.Count)
}

func TestSessionBackend_Remove(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, _, _ := setupSelector(t, catalog)
	backend := selector.For(0, "sid-1")

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

func TestSessionBackend_List_DropsMissingProducts(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	selector, _, _ := setupSelector(t, catalog)
	backend := selector.For(0, "sid-1")

	_, err := backend.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = backend.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	delete(catalog.products, 2)

	list, err := backend.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, list.ProductIDs)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Mug", list.Products[0].Name)
	assert.Equal(t, 1, list.Count)

	// The drop is persisted.
	count, err := backend.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDatabaseBackend_Toggle(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, set, _ := setupSelector(t, catalog)
	backend := selector.For(7, "sid-1")

	result, err := backend.Toggle(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.True(t, result.IsFavorite)
	assert.Equal(t, 1, result.Count)
	_, ok := set.sets[7][1]
	assert.True(t, ok)

	result, err = backend.Toggle(context.Background(), catalog.products[1])
	require.NoError(t, err)
	assert.False(t, result.IsFavorite)
	assert.Equal(t, 0, result.Count)
}

func TestDatabaseBackend_List_SkipsMissingProducts(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, set, _ := setupSelector(t, catalog)
	set.user(7)[1] = struct{}{}
	set.user(7)[99] = struct{}{}

	list, err := selector.For(7, "sid-1").List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, list.ProductIDs)
	assert.Equal(t, 1, list.Count)
}

func TestSyncOnLogin_Union(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
		2: testProduct(2, "Plate", 2500),
	}}
	selector, set, mr := setupSelector(t, catalog)

	sess := selector.For(0, "sid-1")
	_, err := sess.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)
	_, err = sess.Add(context.Background(), catalog.products[2])
	require.NoError(t, err)

	// The account already favors product 2; union, not duplication.
	set.user(7)[2] = struct{}{}

	synced, err := selector.SyncOnLogin(context.Background(), "sid-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Len(t, set.sets[7], 2)

	assert.False(t, mr.Exists("session:sid-1:favorites"))
}

func TestSyncOnLogin_EmptySessionIsNoOp(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{}}
	selector, set, _ := setupSelector(t, catalog)

	synced, err := selector.SyncOnLogin(context.Background(), "sid-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Empty(t, set.sets[7])
}

func TestSyncOnLogin_FailedBulkAddLeavesSessionIntact(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*store.Product{
		1: testProduct(1, "Mug", 1200),
	}}
	selector, set, mr := setupSelector(t, catalog)

	sess := selector.For(0, "sid-1")
	_, err := sess.Add(context.Background(), catalog.products[1])
	require.NoError(t, err)

	set.bulkErr = errors.New("storage down")

	synced, err := selector.SyncOnLogin(context.Background(), "sid-1", 7)
	require.Error(t, err)
	assert.Equal(t, 0, synced)
	assert.True(t, mr.Exists("session:sid-1:favorites"))
}
