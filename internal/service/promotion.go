package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

type PromotionNotifier interface {
	NotifyNewPromotion(ctx context.Context, promo *model.Promotion) (FanoutResult, error)
}

type PromotionService struct {
	promoRepo repository.PromotionRepository
	notifier  PromotionNotifier
	log       *slog.Logger
	now       func() time.Time
}

func NewPromotionService(promoRepo repository.PromotionRepository, notifier PromotionNotifier, log *slog.Logger) *PromotionService {
	return &PromotionService{promoRepo: promoRepo, notifier: notifier, log: log, now: time.Now}
}

func (s *PromotionService) ListValid(ctx context.Context) ([]dto.PromotionResponse, error) {
	promos, err := s.promoRepo.ListValid(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	out := make([]dto.PromotionResponse, 0, len(promos))
	for i := range promos {
		out = append(out, toPromotionResponse(&promos[i]))
	}
	return out, nil
}

func (s *PromotionService) GetByID(ctx context.Context, id uuid.UUID) (*dto.PromotionResponse, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if promo == nil {
		return nil, ErrPromotionNotFound
	}
	resp := toPromotionResponse(promo)
	return &resp, nil
}

// Create persists the promotion and then announces it. The announcement is
// best-effort and never fails the request once the row is written.
func (s *PromotionService) Create(ctx context.Context, req dto.CreatePromotionRequest) (*dto.PromotionResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrPromotionTitle
	}
	products, err := parseProductIDs(req.ApplicableProducts)
	if err != nil {
		return nil, err
	}

	promo := &model.Promotion{
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		Image:                req.Image,
		DiscountPercent:      req.DiscountPercent,
		ValidFrom:            req.ValidFrom,
		ValidUntil:           req.ValidUntil,
		ApplicableProducts:   products,
		ApplicableCategories: req.ApplicableCategories,
		IsActive:             true,
	}
	if promo.ValidFrom.IsZero() {
		promo.ValidFrom = s.now()
	}
	if promo.ValidUntil.IsZero() {
		promo.ValidUntil = promo.ValidFrom.AddDate(0, 0, 30)
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	if promo.ValidUntil.Before(promo.ValidFrom) {
		return nil, ErrPromotionWindow
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	if _, err := s.notifier.NotifyNewPromotion(ctx, promo); err != nil {
		s.log.Warn("promotion announcement failed", "promotion_id", promo.ID, "error", err)
	}

	resp := toPromotionResponse(promo)
	return &resp, nil
}

func (s *PromotionService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePromotionRequest) (*dto.PromotionResponse, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if promo == nil {
		return nil, ErrPromotionNotFound
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrPromotionTitle
		}
		promo.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		promo.Description = *req.Description
	}
	if req.Image != nil {
		promo.Image = *req.Image
	}
	if req.DiscountPercent != nil {
		promo.DiscountPercent = *req.DiscountPercent
	}
	if req.ValidFrom != nil {
		promo.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		promo.ValidUntil = *req.ValidUntil
	}
	if req.ApplicableProducts != nil {
		products, err := parseProductIDs(*req.ApplicableProducts)
		if err != nil {
			return nil, err
		}
		promo.ApplicableProducts = products
	}
	if req.ApplicableCategories != nil {
		promo.ApplicableCategories = *req.ApplicableCategories
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	if promo.ValidUntil.Before(promo.ValidFrom) {
		return nil, ErrPromotionWindow
	}

	if err := s.promoRepo.Update(ctx, promo); err != nil {
		return nil, fmt.Errorf("update promotion: %w", err)
	}
	resp := toPromotionResponse(promo)
	return &resp, nil
}

func (s *PromotionService) Delete(ctx context.Context, id uuid.UUID) error {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get promotion: %w", err)
	}
	if promo == nil {
		return ErrPromotionNotFound
	}
	if err := s.promoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	return nil
}

func parseProductIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			return nil, ErrInvalidProductRef
		}
		ids = append(ids, id)
	}
	return ids, nil
}
