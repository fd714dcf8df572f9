package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speps/go-hashids/v2"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		Create(context.Context, *User) error
		SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
		GetRefreshToken(ctx context.Context, userID int64) (string, error)
		DeleteRefreshToken(ctx context.Context, userID int64) error
	}
	Products interface {
		GetByID(context.Context, int64) (*Product, error)
		GetMany(context.Context, []int64) (map[int64]*Product, error)
		List(context.Context, ProductFilter) ([]Product, error)
		Create(context.Context, *Product) error
		Update(context.Context, int64, map[string]interface{}) error
		SetImage(ctx context.Context, productID int64, imageURL string) error
	}
	CartItems interface {
		Add(ctx context.Context, userID, productID int64) error
		AdjustQuantity(ctx context.Context, userID, productID int64, delta int) (int, error)
		Remove(ctx context.Context, userID, productID int64) (bool, error)
		RemoveMany(ctx context.Context, userID int64, productIDs []int64) error
		ListByUser(ctx context.Context, userID int64) ([]CartItem, error)
		SumQuantities(ctx context.Context, userID int64) (int, error)
		MergeLines(ctx context.Context, userID int64, lines []MergeLine) error
		Clear(ctx context.Context, userID int64) error
	}
	Favorites interface {
		Add(ctx context.Context, userID, productID int64) (bool, error)
		Remove(ctx context.Context, userID, productID int64) (bool, error)
		Exists(ctx context.Context, userID, productID int64) (bool, error)
		ListIDs(ctx context.Context, userID int64) ([]int64, error)
		Count(ctx context.Context, userID int64) (int, error)
		BulkAdd(ctx context.Context, userID int64, productIDs []int64) (int, error)
		Clear(ctx context.Context, userID int64) error
	}
	Orders interface {
		Create(context.Context, *Order) error
		GetByID(ctx context.Context, userID, orderID int64) (*Order, error)
		ListByUser(ctx context.Context, userID int64) ([]Order, error)
	}
}

func NewStorage(db *pgxpool.Pool, orderRefs *hashids.HashID) Storage {
	return Storage{
		Users:     &UsersStore{db},
		Products:  &ProductsStore{db},
		CartItems: &CartItemsStore{db},
		Favorites: &FavoritesStore{db},
		Orders:    &OrdersStore{db: db, refs: orderRefs},
	}
}

func withTx(db *pgxpool.Pool, ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
