package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/holohaven-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

// Create writes the order header and its snapshot lines in one transaction.
func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, total_price, status, shipping_address, payment_method,
		 transaction_id, notifications_sent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.TotalPrice, order.Status, order.ShippingAddress,
		order.PaymentMethod, order.TransactionID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, price, quantity, image)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity, item.Image,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

const orderColumns = `o.id, o.user_id, o.total_price, o.status, o.shipping_address, o.payment_method,
	o.transaction_id, o.notifications_sent, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	o := &model.Order{}
	dest := []any{
		&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.ShippingAddress, &o.PaymentMethod,
		&o.TransactionID, &o.NotificationsSent, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, r.attachItems(ctx, orders)
}

func (r *pgOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`, u.username, u.email
		 FROM orders o JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var username, email string
		o, err := scanOrder(rows, &username, &email)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Username, o.UserEmail = username, email
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, r.attachItems(ctx, orders)
}

func (r *pgOrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, name, price, quantity, image
		 FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Image); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

// UpdateStatus persists the new status and resets notifications_sent.
func (r *pgOrderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2, notifications_sent = FALSE, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`, order.ID, order.Status,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update order status: %w", err)
	}
	order.NotificationsSent = false
	return nil
}
