// Package favorites implements the favorites list with the same dual-backend
// shape as the cart: a redis session set for anonymous visitors and a
// uniqueness-constrained database table for authenticated users.
package favorites

import (
	"context"

	"bazaar/internal/store"
)

// ToggleResult reports the product's membership after a toggle or add.
type ToggleResult struct {
	IsFavorite bool `json:"is_favorite"`
	Count      int  `json:"favorites_count"`
}

// RemoveResult reports whether the product was actually a member. Removing a
// non-member is not an error.
type RemoveResult struct {
	Removed bool `json:"removed"`
	Count   int  `json:"favorites_count"`
}

// List is a favorites listing with the ids resolved against the catalog.
type List struct {
	ProductIDs []int64         `json:"product_ids"`
	Products   []store.Product `json:"products"`
	Count      int             `json:"favorites_count"`
}

// Backend is the favorites contract shared by the session and database
// variants. Toggle flips membership based on a single check made immediately
// before the mutation.
type Backend interface {
	Toggle(ctx context.Context, product *store.Product) (ToggleResult, error)
	Add(ctx context.Context, product *store.Product) (ToggleResult, error)
	Remove(ctx context.Context, productID int64) (RemoveResult, error)
	List(ctx context.Context) (*List, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Catalog resolves product ids for listings.
type Catalog interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]*store.Product, error)
}

// SetStore is the persistent favorites storage consumed by the database
// variant and the login merge.
type SetStore interface {
	Add(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	ListIDs(ctx context.Context, userID int64) ([]int64, error)
	Count(ctx context.Context, userID int64) (int, error)
	BulkAdd(ctx context.Context, userID int64, productIDs []int64) (int, error)
	Clear(ctx context.Context, userID int64) error
}
