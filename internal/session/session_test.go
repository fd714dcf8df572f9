package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, 24*time.Hour), mr
}

func TestStore_Get_Missing(t *testing.T) {
	store, _ := setupTestStore(t)

	var dst map[string]int
	found, err := store.Get(context.Background(), "sid-1", "cart", &dst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, dst)
}

func TestStore_SaveAndGet(t *testing.T) {
	store, mr := setupTestStore(t)

	in := map[string]int{"a": 1, "b": 2}
	require.NoError(t, store.Save(context.Background(), "sid-1", "cart", in))
	assert.True(t, mr.Exists("session:sid-1:cart"))

	var out map[string]int
	found, err := store.Get(context.Background(), "sid-1", "cart", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestStore_Save_TTL(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Save(context.Background(), "sid-1", "cart", []int{1}))

	ttl := mr.TTL("session:sid-1:cart")
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

func TestStore_Get_InvalidJSON(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, mr.Set("session:sid-1:cart", "{{not-valid-json"))

	var dst map[string]int
	_, err := store.Get(context.Background(), "sid-1", "cart", &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal session")
}

func TestStore_Delete(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Save(context.Background(), "sid-1", "cart", []int{1}))
	require.NoError(t, store.Delete(context.Background(), "sid-1", "cart"))
	assert.False(t, mr.Exists("session:sid-1:cart"))

	// Deleting an absent value is a no-op.
	assert.NoError(t, store.Delete(context.Background(), "sid-1", "cart"))
}

func TestStore_FieldsAreIsolated(t *testing.T) {
	store, _ := setupTestStore(t)

	require.NoError(t, store.Save(context.Background(), "sid-1", "cart", []int{1}))
	require.NoError(t, store.Save(context.Background(), "sid-1", "favorites", []int{2}))
	require.NoError(t, store.Delete(context.Background(), "sid-1", "cart"))

	var favs []int
	found, err := store.Get(context.Background(), "sid-1", "favorites", &favs)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{2}, favs)
}
