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

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListTrending(ctx context.Context, limit int) ([]model.Product, error)
	RandomActive(ctx context.Context) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, name, description, price, category, vtuber_tag, image, images, uploaded_by,
	average_rating, review_count, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.VtuberTag, &p.Image, &p.Images,
		&p.UploadedBy, &p.AverageRating, &p.ReviewCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	product.IsActive = true
	if product.Images == nil {
		product.Images = []string{}
	}
	query := `INSERT INTO products (id, name, description, price, category, vtuber_tag, image, images,
			  uploaded_by, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Category,
		product.VtuberTag, product.Image, product.Images, product.UploadedBy,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *pgProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR vtuber_tag ILIKE '%' || $3 || '%')
		  AND ($4::numeric IS NULL OR price >= $4)
		  AND ($5::numeric IS NULL OR price <= $5)
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, f.Search, f.Category, f.Vtuber, f.MinPrice, f.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *pgProductRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products WHERE is_active ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return categories, nil
}

func (r *pgProductRepo) ListTrending(ctx context.Context, limit int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active
		 ORDER BY review_count DESC, average_rating DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	return collectProducts(rows)
}

func (r *pgProductRepo) RandomActive(ctx context.Context) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY random() LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("random product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, price=$4, category=$5, vtuber_tag=$6,
			  image=$7, images=$8, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Category,
		product.VtuberTag, product.Image, product.Images,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET average_rating = $2, review_count = $3, updated_at = NOW() WHERE id = $1`,
		id, average, count,
	)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	return nil
}
