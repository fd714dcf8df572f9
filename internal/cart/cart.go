// Package cart implements the shopping cart behind one contract with two
// storage variants: a redis session cart for anonymous visitors and a
// database cart for authenticated users. Which variant serves a request is
// decided once per request by the Selector; at login the session cart is
// folded into the database cart.
package cart

import (
	"context"

	"bazaar/internal/store"
)

// Line is one product's entry in a cart. UnitPrice and Name are refreshed
// from the catalog whenever the cart is listed, so a listing always reflects
// the live catalog price.
type Line struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
}

// LineTotal is the line's price times quantity.
func (l Line) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Summary is a full cart listing.
type Summary struct {
	Lines      []Line `json:"lines"`
	TotalPrice int64  `json:"total_price"`
	Count      int    `json:"count"`
}

// AddResult reports the cart count after an add.
type AddResult struct {
	Count int `json:"cart_count"`
}

// UpdateResult reports the line's new quantity (0 when the line was deleted)
// and the cart count after the update. On a failed update the count still
// reflects the current cart so callers never render a stale badge.
type UpdateResult struct {
	Quantity int `json:"item_quantity"`
	Count    int `json:"cart_count"`
}

// RemoveResult reports whether a line was actually removed. Removing an
// absent product is not an error.
type RemoveResult struct {
	Removed bool `json:"removed"`
	Count   int  `json:"cart_count"`
}

// Backend is the cart contract shared by the session and database variants.
//
// Add inserts a line with quantity 1 or increments an existing line by 1.
// UpdateQuantity applies an integer delta to an existing line; a resulting
// quantity of zero or below deletes the line and reports 0, and a missing
// line fails with store.ErrNotFound. Items is a self-healing read: lines
// whose product has disappeared from the catalog are dropped and the drop is
// persisted. Count is the sum of quantities across all lines.
type Backend interface {
	Add(ctx context.Context, product *store.Product) (AddResult, error)
	UpdateQuantity(ctx context.Context, productID int64, delta int) (UpdateResult, error)
	Remove(ctx context.Context, productID int64) (RemoveResult, error)
	Items(ctx context.Context) (*Summary, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Catalog is the slice of the product store the cart reads: the authoritative
// source of price and name at read time.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (*store.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]*store.Product, error)
}

// ItemsStore is the persistent cart storage consumed by the database variant
// and the login merge.
type ItemsStore interface {
	Add(ctx context.Context, userID, productID int64) error
	AdjustQuantity(ctx context.Context, userID, productID int64, delta int) (int, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	RemoveMany(ctx context.Context, userID int64, productIDs []int64) error
	ListByUser(ctx context.Context, userID int64) ([]store.CartItem, error)
	SumQuantities(ctx context.Context, userID int64) (int, error)
	MergeLines(ctx context.Context, userID int64, lines []store.MergeLine) error
	Clear(ctx context.Context, userID int64) error
}
