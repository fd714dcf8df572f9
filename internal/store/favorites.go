package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Favorite represents a favorite product record.
type Favorite struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoritesStore handles database operations for favorite products.
// Uniqueness is enforced by the (user_id, product_id) primary key, not by
// application logic.
type FavoritesStore struct {
	db *pgxpool.Pool
}

// Add inserts a favorite. The returned bool reports whether a new row was
// created; adding an existing favorite is a no-op.
func (s *FavoritesStore) Add(ctx context.Context, userID, productID int64) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes a favorite. Removing a non-member is not an error; the
// returned bool reports whether a row was actually deleted.
func (s *FavoritesStore) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	query := `
		DELETE FROM favorites
		WHERE user_id = $1 AND product_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *FavoritesStore) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	if err := s.db.QueryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

func (s *FavoritesStore) ListIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT product_id FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *FavoritesStore) Count(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM favorites WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

// BulkAdd inserts a batch of favorites in one statement, skipping ids the user
// already has. Returns the number of rows actually created.
func (s *FavoritesStore) BulkAdd(ctx context.Context, userID int64, productIDs []int64) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO favorites (user_id, product_id)
		SELECT $1, pid FROM unnest($2::bigint[]) AS t(pid)
		ON CONFLICT DO NOTHING
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, productIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk add favorites: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *FavoritesStore) Clear(ctx context.Context, userID int64) error {
	query := `DELETE FROM favorites WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}
