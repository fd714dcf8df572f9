package favorites

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bazaar/internal/store"
)

// DatabaseBackend keeps the favorites set in a (user, product) table whose
// primary key enforces uniqueness; the application never deduplicates.
type DatabaseBackend struct {
	set     SetStore
	catalog Catalog
	userID  int64
	logger  *zap.SugaredLogger
}

func NewDatabaseBackend(set SetStore, catalog Catalog, userID int64, logger *zap.SugaredLogger) *DatabaseBackend {
	return &DatabaseBackend{
		set:     set,
		catalog: catalog,
		userID:  userID,
		logger:  logger,
	}
}

func (b *DatabaseBackend) Toggle(ctx context.Context, product *store.Product) (ToggleResult, error) {
	member, err := b.set.Exists(ctx, b.userID, product.ID)
	if err != nil {
		return ToggleResult{}, err
	}

	if member {
		if _, err := b.set.Remove(ctx, b.userID, product.ID); err != nil {
			return ToggleResult{}, err
		}
	} else {
		if _, err := b.set.Add(ctx, b.userID, product.ID); err != nil {
			return ToggleResult{}, err
		}
	}

	count, err := b.set.Count(ctx, b.userID)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{IsFavorite: !member, Count: count}, nil
}

func (b *DatabaseBackend) Add(ctx context.Context, product *store.Product) (ToggleResult, error) {
	if _, err := b.set.Add(ctx, b.userID, product.ID); err != nil {
		return ToggleResult{}, err
	}

	count, err := b.set.Count(ctx, b.userID)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{IsFavorite: true, Count: count}, nil
}

func (b *DatabaseBackend) Remove(ctx context.Context, productID int64) (RemoveResult, error) {
	removed, err := b.set.Remove(ctx, b.userID, productID)
	if err != nil {
		return RemoveResult{}, err
	}

	count, err := b.set.Count(ctx, b.userID)
	if err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Removed: removed, Count: count}, nil
}

func (b *DatabaseBackend) List(ctx context.Context) (*List, error) {
	ids, err := b.set.ListIDs(ctx, b.userID)
	if err != nil {
		return nil, err
	}

	products, err := b.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve favorite products: %w", err)
	}

	list := &List{
		ProductIDs: make([]int64, 0, len(ids)),
		Products:   make([]store.Product, 0, len(ids)),
	}
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			b.logger.Warnw("favorite references missing product", "product_id", id, "user_id", b.userID)
			continue
		}
		list.ProductIDs = append(list.ProductIDs, id)
		list.Products = append(list.Products, *product)
	}
	list.Count = len(list.ProductIDs)
	return list, nil
}

func (b *DatabaseBackend) Count(ctx context.Context) (int, error) {
	return b.set.Count(ctx, b.userID)
}

func (b *DatabaseBackend) Clear(ctx context.Context) error {
	return b.set.Clear(ctx, b.userID)
}
