package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

type ProductCache interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cache       ProductCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cache ProductCache,
) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, orderRepo: orderRepo, productRepo: productRepo, cache: cache}
}

// Create accepts a review only from a buyer whose order contains the product.
func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if !validRating(req.Rating) {
		return nil, ErrInvalidRating
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrNotVerifiedBuyer
	}
	if !order.Contains(req.ProductID) {
		return nil, ErrProductNotInOrder
	}

	existing, err := s.reviewRepo.GetByProductAndUser(ctx, req.ProductID, userID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	review := &model.Review{
		ProductID:  req.ProductID,
		UserID:     userID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		IsVerified: true,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.recompute(ctx, review.ProductID); err != nil {
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) Update(ctx context.Context, userID, id uuid.UUID, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Rating != nil {
		if !validRating(*req.Rating) {
			return nil, ErrInvalidRating
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if err := s.recompute(ctx, review.ProductID); err != nil {
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	review, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return s.recompute(ctx, review.ProductID)
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return toReviewResponses(reviews), nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return toReviewResponses(reviews), nil
}

// owned loads a review the caller wrote. There is no admin override.
func (s *ReviewService) owned(ctx context.Context, userID, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.UserID != userID {
		return nil, ErrReviewAccessDenied
	}
	return review, nil
}

func (s *ReviewService) recompute(ctx context.Context, productID uuid.UUID) error {
	ratings, err := s.reviewRepo.ListRatings(ctx, productID)
	if err != nil {
		return fmt.Errorf("list ratings: %w", err)
	}
	avg, count := ratingSummary(ratings)
	if err := s.productRepo.UpdateRating(ctx, productID, avg, count); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
	return nil
}

// ratingSummary rounds the mean to one decimal place.
func ratingSummary(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings))))
	return mean.Round(1).InexactFloat64(), len(ratings)
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func toReviewResponses(reviews []model.Review) []dto.ReviewResponse {
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out
}
