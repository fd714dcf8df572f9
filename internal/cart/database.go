package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bazaar/internal/store"
)

// DatabaseBackend keeps the cart in durable per-user rows. Every mutation is
// a single atomic statement on the store side, so concurrent increments from
// two requests both land.
type DatabaseBackend struct {
	items   ItemsStore
	catalog Catalog
	userID  int64
	logger  *zap.SugaredLogger
}

func NewDatabaseBackend(items ItemsStore, catalog Catalog, userID int64, logger *zap.SugaredLogger) *DatabaseBackend {
	return &DatabaseBackend{
		items:   items,
		catalog: catalog,
		userID:  userID,
		logger:  logger,
	}
}

func (b *DatabaseBackend) Add(ctx context.Context, product *store.Product) (AddResult, error) {
	if err := b.items.Add(ctx, b.userID, product.ID); err != nil {
		return AddResult{}, err
	}

	count, err := b.items.SumQuantities(ctx, b.userID)
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Count: count}, nil
}

func (b *DatabaseBackend) UpdateQuantity(ctx context.Context, productID int64, delta int) (UpdateResult, error) {
	quantity, err := b.items.AdjustQuantity(ctx, b.userID, productID, delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The line is absent; still report the current count.
			count, countErr := b.items.SumQuantities(ctx, b.userID)
			if countErr != nil {
				return UpdateResult{}, countErr
			}
			return UpdateResult{Count: count}, err
		}
		return UpdateResult{}, err
	}

	count, err := b.items.SumQuantities(ctx, b.userID)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Quantity: quantity, Count: count}, nil
}

func (b *DatabaseBackend) Remove(ctx context.Context, productID int64) (RemoveResult, error) {
	removed, err := b.items.Remove(ctx, b.userID, productID)
	if err != nil {
		return RemoveResult{}, err
	}

	count, err := b.items.SumQuantities(ctx, b.userID)
	if err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Removed: removed, Count: count}, nil
}

// Items lists the cart joined against the live catalog. Rows whose product
// has been deleted from the catalog are removed in one batch before the
// summary is built.
func (b *DatabaseBackend) Items(ctx context.Context) (*Summary, error) {
	items, err := b.items.ListByUser(ctx, b.userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := b.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	summary := &Summary{Lines: make([]Line, 0, len(items))}
	var orphaned []int64
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			b.logger.Warnw("dropping cart line for missing product", "product_id", item.ProductID, "user_id", b.userID)
			orphaned = append(orphaned, item.ProductID)
			continue
		}
		line := Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
		}
		summary.Lines = append(summary.Lines, line)
		summary.TotalPrice += line.LineTotal()
		summary.Count += item.Quantity
	}

	if len(orphaned) > 0 {
		if err := b.items.RemoveMany(ctx, b.userID, orphaned); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (b *DatabaseBackend) Count(ctx context.Context) (int, error) {
	return b.items.SumQuantities(ctx, b.userID)
}

func (b *DatabaseBackend) Clear(ctx context.Context) error {
	return b.items.Clear(ctx, b.userID)
}
