package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speps/go-hashids/v2"
)

// Order is a placed order. Reference is the public order code shown to the
// customer, derived from the row id.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Reference string      `json:"reference"`
	Address   string      `json:"address"`
	City      string      `json:"city"`
	Paid      bool        `json:"paid"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one line frozen at checkout time; UnitPrice is a copy of the
// cart line price and is decoupled from later catalog price changes.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	UnitPrice int64 `json:"unit_price"`
	Quantity  int   `json:"quantity"`
}

// TotalPrice sums unit price times quantity over all order lines.
func (o *Order) TotalPrice() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// OrdersStore handles database operations for orders and their lines.
type OrdersStore struct {
	db   *pgxpool.Pool
	refs *hashids.HashID
}

// Create persists the order and all of its lines in one transaction. The
// lines are written with a single bulk statement rather than one insert per
// line. On success the order's ID, Reference and timestamps are populated.
func (s *OrdersStore) Create(ctx context.Context, order *Order) error {
	if len(order.Items) == 0 {
		return errors.New("order must contain at least one item")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		insertOrder := `
			INSERT INTO orders (user_id, address, city, paid)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, insertOrder, order.UserID, order.Address, order.City, order.Paid).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		reference, err := s.refs.EncodeInt64([]int64{order.ID})
		if err != nil {
			return fmt.Errorf("failed to encode order reference: %w", err)
		}
		order.Reference = reference

		setRef := `UPDATE orders SET reference = $1 WHERE id = $2`
		if _, err := tx.Exec(ctx, setRef, reference, order.ID); err != nil {
			return fmt.Errorf("failed to set order reference: %w", err)
		}

		productIDs := make([]int64, len(order.Items))
		prices := make([]int64, len(order.Items))
		quantities := make([]int, len(order.Items))
		for i, item := range order.Items {
			productIDs[i] = item.ProductID
			prices[i] = item.UnitPrice
			quantities[i] = item.Quantity
		}

		insertItems := `
			INSERT INTO order_items (order_id, product_id, unit_price, quantity)
			SELECT $1, pid, price, qty
			FROM unnest($2::bigint[], $3::bigint[], $4::int[]) AS t(pid, price, qty)
		`
		if _, err := tx.Exec(ctx, insertItems, order.ID, productIDs, prices, quantities); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return nil
	})
}

func (s *OrdersStore) GetByID(ctx context.Context, userID, orderID int64) (*Order, error) {
	query := `
		SELECT id, user_id, reference, address, city, paid, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	order := &Order{}
	err := s.db.QueryRow(ctx, query, orderID, userID).Scan(
		&order.ID,
		&order.UserID,
		&order.Reference,
		&order.Address,
		&order.City,
		&order.Paid,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := s.listItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (s *OrdersStore) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	query := `
		SELECT id, user_id, reference, address, city, paid, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	var orderIDs []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Reference, &o.Address, &o.City, &o.Paid, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (s *OrdersStore) listItems(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	items := make(map[int64][]OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	query := `
		SELECT id, order_id, product_id, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item row: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
