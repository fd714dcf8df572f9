package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartItem is one persistent cart line for an authenticated user.
// Quantity is always >= 1 while the row exists; a quantity adjustment that
// drops to zero or below deletes the row instead.
type CartItem struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeLine is one session cart line being folded into the persistent cart.
type MergeLine struct {
	ProductID int64
	Quantity  int
}

// CartItemsStore handles database operations for persistent cart lines.
type CartItemsStore struct {
	db *pgxpool.Pool
}

// Add inserts a line with quantity 1 or increments an existing line by 1.
// The upsert is a single statement so concurrent adds from two requests both
// land.
func (s *CartItemsStore) Add(ctx context.Context, userID, productID int64) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = NOW()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// AdjustQuantity applies an integer delta to an existing line and returns the
// resulting quantity. A result of zero or below deletes the line and reports 0.
// The delete runs before any update because the quantity column carries a
// CHECK (quantity > 0) constraint, so an update crossing zero would abort.
// Returns ErrNotFound when the user has no line for the product.
func (s *CartItemsStore) AdjustQuantity(ctx context.Context, userID, productID int64, delta int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var newQuantity int
	err := withTx(s.db, ctx, func(tx pgx.Tx) error {
		del := `
			DELETE FROM cart_items
			WHERE user_id = $1 AND product_id = $2 AND quantity + $3 <= 0
		`
		tag, err := tx.Exec(ctx, del, userID, productID, delta)
		if err != nil {
			return fmt.Errorf("failed to delete exhausted cart item: %w", err)
		}
		if tag.RowsAffected() > 0 {
			newQuantity = 0
			return nil
		}

		query := `
			UPDATE cart_items
			SET quantity = quantity + $3, updated_at = NOW()
			WHERE user_id = $1 AND product_id = $2 AND quantity + $3 > 0
			RETURNING quantity
		`
		if err := tx.QueryRow(ctx, query, userID, productID, delta).Scan(&newQuantity); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to adjust cart quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newQuantity, nil
}

// Remove deletes a line. Removing an absent product is not an error; the
// returned bool reports whether a row was actually deleted.
func (s *CartItemsStore) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveMany deletes a batch of lines in one statement. Used by the
// self-healing listing when referenced products no longer exist.
func (s *CartItemsStore) RemoveMany(ctx context.Context, userID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = ANY($2)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, query, userID, productIDs); err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	return nil
}

func (s *CartItemsStore) ListByUser(ctx context.Context, userID int64) ([]CartItem, error) {
	query := `
		SELECT user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY product_id
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CartItemsStore) SumQuantities(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum cart quantities: %w", err)
	}
	return total, nil
}

// MergeLines folds session cart lines into the persistent cart in a single
// bulk statement: new products get a fresh row, colliding products have their
// quantities summed.
func (s *CartItemsStore) MergeLines(ctx context.Context, userID int64, lines []MergeLine) error {
	if len(lines) == 0 {
		return nil
	}

	productIDs := make([]int64, len(lines))
	quantities := make([]int, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
		quantities[i] = line.Quantity
	}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		SELECT $1, pid, qty
		FROM unnest($2::bigint[], $3::int[]) AS t(pid, qty)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, query, userID, productIDs, quantities); err != nil {
		return fmt.Errorf("failed to merge cart lines: %w", err)
	}
	return nil
}

func (s *CartItemsStore) Clear(ctx context.Context, userID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
