package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultProductImage is served when a product has no uploaded image.
const DefaultProductImage = "/static/images/placeholder.jpg"

// Product is a catalog row. Price is stored in cents.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Price       int64     `json:"price"`
	Weight      float64   `json:"weight"`
	ImageURL    string    `json:"image_url"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID *int64
	Type       string
	Limit      int
	Offset     int
}

// ProductsStore handles database operations for the catalog.
type ProductsStore struct {
	db *pgxpool.Pool
}

func (s *ProductsStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, description, type, price, weight, image_url, category_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &Product{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Type,
		&p.Price,
		&p.Weight,
		&p.ImageURL,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if p.ImageURL == "" {
		p.ImageURL = DefaultProductImage
	}
	return p, nil
}

// GetMany resolves a batch of product ids in a single query. Ids with no
// matching row are simply absent from the returned map.
func (s *ProductsStore) GetMany(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	products := make(map[int64]*Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `
		SELECT id, name, description, type, price, weight, image_url, category_id, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Type,
			&p.Price,
			&p.Weight,
			&p.ImageURL,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		if p.ImageURL == "" {
			p.ImageURL = DefaultProductImage
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductsStore) List(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `
		SELECT id, name, description, type, price, weight, image_url, category_id, created_at, updated_at
		FROM products
	`
	var clauses []string
	var args []interface{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Type,
			&p.Price,
			&p.Weight,
			&p.ImageURL,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		if p.ImageURL == "" {
			p.ImageURL = DefaultProductImage
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductsStore) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (name, description, type, price, weight, image_url, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query, p.Name, p.Description, p.Type, p.Price, p.Weight, p.ImageURL, p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update applies a partial update built from the given column/value pairs.
func (s *ProductsStore) Update(ctx context.Context, productID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)+1)

	i := 1
	for column, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, i))
		args = append(args, value)
		i++
	}
	args = append(args, productID)

	query := fmt.Sprintf(
		`UPDATE products SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(setClauses, ", "), i,
	)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductsStore) SetImage(ctx context.Context, productID int64, imageURL string) error {
	query := `UPDATE products SET image_url = $1, updated_at = NOW() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, imageURL, productID)
	if err != nil {
		return fmt.Errorf("failed to set product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
