package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/flicky/holohaven-api/internal/dto"
)

// Item is one mirrored cart line with the product fields needed to render it.
type Item struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Image     string
	AddedAt   time.Time
}

// Cart is what the offline-capable cart hands back to callers.
type Cart struct {
	Items      []Item
	TotalPrice decimal.Decimal
	// Offline is set when the server could not be reached and the lines
	// come from the local mirror.
	Offline bool
}

func newCart(items []Item, offline bool) *Cart {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if items == nil {
		items = []Item{}
	}
	return &Cart{Items: items, TotalPrice: total, Offline: offline}
}

func fromResponse(resp *dto.CartResponse, at time.Time) []Item {
	if resp == nil {
		return nil
	}
	items := make([]Item, 0, len(resp.Items))
	for _, line := range resp.Items {
		items = append(items, Item{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Image:     line.Product.Image,
			AddedAt:   at,
		})
	}
	return items
}

// Mirror is the on-device copy of the cart.
type Mirror struct {
	db *sql.DB
}

func OpenMirror(dataSourceName string) (*Mirror, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	m := &Mirror{db: db}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mirror) Close() error { return m.db.Close() }

func (m *Mirror) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cart (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		productId TEXT NOT NULL UNIQUE,
		productName TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		image TEXT,
		addedAt DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("init mirror schema: %w", err)
	}
	return nil
}

func (m *Mirror) Items(ctx context.Context) ([]Item, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT productId, productName, price, quantity, image, addedAt FROM cart ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query mirror: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it        Item
			id, price string
			image     sql.NullString
		)
		if err := rows.Scan(&id, &it.Name, &price, &it.Quantity, &image, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan mirror row: %w", err)
		}
		if it.ProductID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("mirror product id: %w", err)
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("mirror price: %w", err)
		}
		it.Image = image.String
		items = append(items, it)
	}
	return items, rows.Err()
}

// Replace swaps the mirror contents for items in one transaction.
func (m *Mirror) Replace(ctx context.Context, items []Item) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart`); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	for _, it := range items {
		if err := insertItem(ctx, tx, it); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Add increments an existing line or inserts a new one.
func (m *Mirror) Add(ctx context.Context, it Item) error {
	res, err := m.db.ExecContext(ctx,
		`UPDATE cart SET quantity = quantity + ? WHERE productId = ?`, it.Quantity, it.ProductID.String())
	if err != nil {
		return fmt.Errorf("update mirror line: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return insertItem(ctx, m.db, it)
}

// SetQuantity removes the line when quantity is not positive.
func (m *Mirror) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, productID)
	}
	res, err := m.db.ExecContext(ctx,
		`UPDATE cart SET quantity = ? WHERE productId = ?`, quantity, productID.String())
	if err != nil {
		return fmt.Errorf("set mirror quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotInMirror
	}
	return nil
}

func (m *Mirror) Remove(ctx context.Context, productID uuid.UUID) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM cart WHERE productId = ?`, productID.String()); err != nil {
		return fmt.Errorf("remove mirror line: %w", err)
	}
	return nil
}

func (m *Mirror) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM cart`); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	return nil
}

var ErrNotInMirror = errors.New("item not in offline cart")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, db execer, it Item) error {
	if it.AddedAt.IsZero() {
		it.AddedAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO cart (productId, productName, price, quantity, image, addedAt) VALUES (?, ?, ?, ?, ?, ?)`,
		it.ProductID.String(), it.Name, it.Price.String(), it.Quantity, it.Image, it.AddedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert mirror line: %w", err)
	}
	return nil
}
