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

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

// GetOrCreateCart relies on the unique user_id index so two concurrent first
// reads still end up with one cart.
func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id, user_id, created_at, updated_at`,
		uuid.New(), userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *pgCartRepo) loadItems(ctx context.Context, cart *model.Cart) error {
	rows, err := r.pool.Query(ctx,
		`SELECT cart_id, product_id, quantity, created_at, updated_at FROM cart_items
		 WHERE cart_id = $1 ORDER BY created_at`, cart.ID,
	)
	if err != nil {
		return fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = nil
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return rows.Err()
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, NOW(), NOW())
			  ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $3, updated_at = NOW()
			  RETURNING quantity, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, item.CartID, item.ProductID, item.Quantity).
		Scan(&item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgCartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
