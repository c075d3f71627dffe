package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

const (
	productCacheTTL = 60 * time.Second
	trendingLimit   = 10
)

type ProductService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	redisClient *redis.Client
	images      *ImageService
	log         *slog.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	images *ImageService,
	log *slog.Logger,
) *ProductService {
	return &ProductService{productRepo: productRepo, userRepo: userRepo, redisClient: redisClient, images: images, log: log}
}

// Create stores a product owned by userID. An attached image that fails to
// upload is logged and the product is created without it.
func (s *ProductService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateProductRequest, image io.Reader) (*dto.ProductResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" || !req.Price.Valid {
		return nil, ErrProductFieldsMissing
	}
	if req.Price.Decimal.IsNegative() {
		return nil, newError(ErrInvalidInput, "price must not be negative")
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Decimal,
		Category:    strings.TrimSpace(req.Category),
		VtuberTag:   req.VtuberTag,
		Image:       req.Image,
		UploadedBy:  &userID,
		IsActive:    true,
	}
	if image != nil {
		asset, err := s.images.Upload(ctx, image)
		if err != nil {
			s.log.Warn("product image upload failed, continuing without image", "error", err)
		} else {
			product.Image = asset.URL
		}
	}
	if product.Image != "" {
		product.Images = []string{product.Image}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, filter model.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *ProductService) Trending(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.ListTrending(ctx, trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	return toProductResponses(products), nil
}

// Update applies the set fields. An attached image becomes the main image
// and joins the gallery; unlike Create, a failed upload fails the update.
func (s *ProductService) Update(ctx context.Context, userID, id uuid.UUID, req dto.UpdateProductRequest, image io.Reader) (*dto.ProductResponse, error) {
	product, err := s.editable(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, newError(ErrInvalidInput, "price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.VtuberTag != nil {
		product.VtuberTag = *req.VtuberTag
	}
	if image != nil {
		asset, err := s.images.Upload(ctx, image)
		if err != nil {
			return nil, err
		}
		product.Image = asset.URL
		if !slices.Contains(product.Images, asset.URL) {
			product.Images = append(product.Images, asset.URL)
		}
	} else if req.Image != nil {
		product.Image = *req.Image
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.Invalidate(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.editable(ctx, userID, id); err != nil {
		return err
	}
	if err := s.productRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.Invalidate(ctx, id)
	return nil
}

// AddImage appends an uploaded image to the gallery. Here the upload is the
// whole request, so a host failure is returned.
func (s *ProductService) AddImage(ctx context.Context, userID, id uuid.UUID, image io.Reader) (*dto.ProductResponse, error) {
	product, err := s.editable(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	asset, err := s.images.Upload(ctx, image)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, asset.URL)
	if product.Image == "" {
		product.Image = asset.URL
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.Invalidate(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Invalidate(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

// editable loads the product and checks the caller may change it: seeded
// products are open to everyone, others to their uploader or an admin.
func (s *ProductService) editable(ctx context.Context, userID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.IsSeeded() || *product.UploadedBy == userID {
		return product, nil
	}
	admin, err := isAdmin(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrProductAccessDenied
	}
	return product, nil
}

func toProductResponses(products []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}
