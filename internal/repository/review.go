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

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	GetByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListRatings(ctx context.Context, productID uuid.UUID) ([]int, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
}

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

const reviewColumns = `r.id, r.product_id, r.user_id, r.order_id, r.rating, r.comment, r.is_verified, r.created_at, r.updated_at`

func scanReview(row pgx.Row, extra ...any) (*model.Review, error) {
	rv := &model.Review{}
	dest := []any{&rv.ID, &rv.ProductID, &rv.UserID, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.IsVerified, &rv.CreatedAt, &rv.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *pgReviewRepo) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (id, product_id, user_id, order_id, rating, comment, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
		review.ID, review.ProductID, review.UserID, review.OrderID, review.Rating, review.Comment, review.IsVerified,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) GetByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE r.product_id = $1 AND r.user_id = $2`, productID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review by product and user: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) Update(ctx context.Context, review *model.Review) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE reviews SET rating = $2, comment = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		review.ID, review.Rating, review.Comment,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) ListRatings(ctx context.Context, productID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT rating FROM reviews WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scan rating: %w", err)
	}
	return ratings, nil
}

func (r *pgReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+`, u.username, u.profile_picture
		 FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.product_id = $1 ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var username, picture string
		rv, err := scanReview(rows, &username, &picture)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.Username, rv.UserPicture = username, picture
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *pgReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+`, p.name, p.image
		 FROM reviews r JOIN products p ON p.id = r.product_id
		 WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var name, image string
		rv, err := scanReview(rows, &name, &image)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.ProductName, rv.ProductImage = name, image
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}
