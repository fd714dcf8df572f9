package favorites

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"bazaar/internal/session"
	"bazaar/internal/store"
)

const sessionField = "favorites"

// SessionBackend keeps the favorites set in the visitor's redis session as a
// slice of product ids.
type SessionBackend struct {
	sessions *session.Store
	catalog  Catalog
	sid      string
	logger   *zap.SugaredLogger
}

func NewSessionBackend(sessions *session.Store, catalog Catalog, sid string, logger *zap.SugaredLogger) *SessionBackend {
	return &SessionBackend{
		sessions: sessions,
		catalog:  catalog,
		sid:      sid,
		logger:   logger,
	}
}

func (b *SessionBackend) load(ctx context.Context) (map[int64]struct{}, error) {
	var ids []int64
	if _, err := b.sessions.Get(ctx, b.sid, sessionField, &ids); err != nil {
		return nil, err
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (b *SessionBackend) save(ctx context.Context, set map[int64]struct{}) error {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return b.sessions.Save(ctx, b.sid, sessionField, ids)
}

// Toggle flips the product's membership. The membership check reads the
// session immediately before the mutation so the reported state is never
// stale.
func (b *SessionBackend) Toggle(ctx context.Context, product *store.Product) (ToggleResult, error) {
	set, err := b.load(ctx)
	if err != nil {
		return ToggleResult{}, err
	}

	_, member := set[product.ID]
	if member {
		delete(set, product.ID)
	} else {
		set[product.ID] = struct{}{}
	}

	if err := b.save(ctx, set); err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{IsFavorite: !member, Count: len(set)}, nil
}

func (b *SessionBackend) Add(ctx context.Context, product *store.Product) (ToggleResult, error) {
	set, err := b.load(ctx)
	if err != nil {
		return ToggleResult{}, err
	}

	set[product.ID] = struct{}{}
	if err := b.save(ctx, set); err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{IsFavorite: true, Count: len(set)}, nil
}

func (b *SessionBackend) Remove(ctx context.Context, productID int64) (RemoveResult, error) {
	set, err := b.load(ctx)
	if err != nil {
		return RemoveResult{}, err
	}

	_, member := set[productID]
	if member {
		delete(set, productID)
		if err := b.save(ctx, set); err != nil {
			return RemoveResult{}, err
		}
	}
	return RemoveResult{Removed: member, Count: len(set)}, nil
}

// List resolves the favorite ids against the catalog. Ids whose product has
// disappeared are dropped from the session set and the cleaned set is saved
// back.
func (b *SessionBackend) List(ctx context.Context) (*List, error) {
	set, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	products, err := b.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve favorite products: %w", err)
	}

	dirty := false
	for id := range set {
		if _, ok := products[id]; !ok {
			b.logger.Warnw("dropping favorite for missing product", "product_id", id, "session_id", b.sid)
			delete(set, id)
			dirty = true
		}
	}
	if dirty {
		if err := b.save(ctx, set); err != nil {
			return nil, err
		}
	}

	list := &List{
		ProductIDs: make([]int64, 0, len(set)),
		Products:   make([]store.Product, 0, len(set)),
	}
	for id := range set {
		list.ProductIDs = append(list.ProductIDs, id)
	}
	sort.Slice(list.ProductIDs, func(i, j int) bool { return list.ProductIDs[i] < list.ProductIDs[j] })
	for _, id := range list.ProductIDs {
		list.Products = append(list.Products, *products[id])
	}
	list.Count = len(list.ProductIDs)
	return list, nil
}

func (b *SessionBackend) Count(ctx context.Context) (int, error) {
	set, err := b.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

func (b *SessionBackend) Clear(ctx context.Context) error {
	return b.sessions.Delete(ctx, b.sid, sessionField)
}
