package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/holohaven-api/internal/model"
)

type PromotionRepository interface {
	Create(ctx context.Context, promo *model.Promotion) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	ListValid(ctx context.Context, now time.Time) ([]model.Promotion, error)
	Update(ctx context.Context, promo *model.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgPromotionRepo struct{ pool *pgxpool.Pool }

func NewPromotionRepository(pool *pgxpool.Pool) PromotionRepository {
	return &pgPromotionRepo{pool: pool}
}

const promotionColumns = `id, title, description, image, discount_percent, valid_from, valid_until,
	applicable_products, applicable_categories, is_active, created_at, updated_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	p := &model.Promotion{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Image, &p.DiscountPercent, &p.ValidFrom, &p.ValidUntil,
		&p.ApplicableProducts, &p.ApplicableCategories, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeLists(p *model.Promotion) {
	if p.ApplicableProducts == nil {
		p.ApplicableProducts = []uuid.UUID{}
	}
	if p.ApplicableCategories == nil {
		p.ApplicableCategories = []string{}
	}
}

func (r *pgPromotionRepo) Create(ctx context.Context, p *model.Promotion) error {
	p.ID = uuid.New()
	normalizeLists(p)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO promotions (id, title, description, image, discount_percent, valid_from, valid_until,
		 applicable_products, applicable_categories, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Description, p.Image, p.DiscountPercent, p.ValidFrom, p.ValidUntil,
		p.ApplicableProducts, p.ApplicableCategories, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

func (r *pgPromotionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, err := scanPromotion(r.pool.QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return p, nil
}

func (r *pgPromotionRepo) ListValid(ctx context.Context, now time.Time) ([]model.Promotion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions
		 WHERE is_active AND valid_from <= $1 AND valid_until >= $1
		 ORDER BY valid_until`, now)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var promos []model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

func (r *pgPromotionRepo) Update(ctx context.Context, p *model.Promotion) error {
	normalizeLists(p)
	err := r.pool.QueryRow(ctx,
		`UPDATE promotions SET title=$2, description=$3, image=$4, discount_percent=$5, valid_from=$6,
		 valid_until=$7, applicable_products=$8, applicable_categories=$9, is_active=$10, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		p.ID, p.Title, p.Description, p.Image, p.DiscountPercent, p.ValidFrom, p.ValidUntil,
		p.ApplicableProducts, p.ApplicableCategories, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update promotion: %w", err)
	}
	return nil
}

func (r *pgPromotionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	return nil
}
