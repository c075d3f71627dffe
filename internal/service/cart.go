package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return s.respond(ctx, cart)
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := s.cartRepo.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	return s.reload(ctx, userID)
}

// SetItemQuantity replaces a line's quantity. A quantity of zero or less
// removes the line and never fails for a missing line.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if quantity <= 0 {
		if cart == nil {
			return emptyCart(userID), nil
		}
		if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
			return nil, fmt.Errorf("remove item: %w", err)
		}
		return s.reload(ctx, userID)
	}

	if cart == nil {
		return nil, ErrCartNotFound
	}
	found, err := s.cartRepo.SetItemQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}
	if !found {
		return nil, ErrCartItemNotFound
	}
	return s.reload(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*dto.CartResponse, error) {
	return s.SetItemQuantity(ctx, userID, productID, 0)
}

// Clear deletes the cart. Clearing a cart that does not exist is not an error.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) reload(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return emptyCart(userID), nil
	}
	return s.respond(ctx, cart)
}

func (s *CartService) respond(ctx context.Context, cart *model.Cart) (*dto.CartResponse, error) {
	view, err := resolveCart(ctx, s.productRepo, cart)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CartItemResponse, 0, len(view.Lines))
	for i := range view.Lines {
		items = append(items, dto.CartItemResponse{
			Product:  toProductResponse(&view.Lines[i].Product),
			Quantity: view.Lines[i].Quantity,
		})
	}
	return &dto.CartResponse{ID: view.ID, UserID: view.UserID, Items: items, TotalPrice: view.TotalPrice}, nil
}

func emptyCart(userID uuid.UUID) *dto.CartResponse {
	return &dto.CartResponse{UserID: userID, Items: []dto.CartItemResponse{}, TotalPrice: decimal.Zero}
}

// resolveCart joins cart lines against the live catalog. Lines whose product
// is gone or inactive are left out of the view and the total.
func resolveCart(ctx context.Context, products repository.ProductRepository, cart *model.Cart) (*model.CartView, error) {
	view := &model.CartView{ID: cart.ID, UserID: cart.UserID, TotalPrice: decimal.Zero}
	if len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	byID, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	for _, item := range cart.Items {
		p, ok := byID[item.ProductID]
		if !ok || p == nil || !p.IsActive {
			continue
		}
		view.Lines = append(view.Lines, model.CartLine{Product: *p, Quantity: item.Quantity})
		view.TotalPrice = view.TotalPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return view, nil
}
