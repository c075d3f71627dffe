package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

type OrderNotifier interface {
	NotifyOrderStatus(ctx context.Context, order *model.Order, status model.OrderStatus) error
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	notifier    OrderNotifier
	policy      TransitionPolicy
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	notifier OrderNotifier,
	policy TransitionPolicy,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		policy:      policy,
		log:         log,
	}
}

// Checkout turns the caller's cart into a processing order with a frozen
// copy of each line, then deletes the cart. The two writes are not atomic:
// if the cart delete fails the order stands and the cart lingers.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}
	view, err := resolveCart(ctx, s.productRepo, cart)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, ErrCartEmpty
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Image:     line.Product.Image,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Items:           items,
		TotalPrice:      total,
		Status:          model.OrderStatusProcessing,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		s.log.Warn("order placed but cart not cleared", "order_id", order.ID, "user_id", userID, "error", err)
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toOrderResponses(orders), nil
}

// ListAll backs the admin view. Each line keeps its snapshot and also carries
// the product as it is now, or nil when the product row is gone.
func (s *OrderService) ListAll(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, o := range orders {
		for _, it := range o.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get order products: %w", err)
	}

	out := toOrderResponses(orders)
	for i := range out {
		for j := range out[i].Items {
			if p, ok := products[out[i].Items[j].ProductID]; ok {
				live := toProductResponse(p)
				out[i].Items[j].Product = &live
			}
		}
	}
	return out, nil
}

// UpdateStatus is allowed for the owner or an admin. The new status is
// durable before the fan-out runs, and fan-out problems never fail the call.
// notificationsSent is reset here and not consulted before sending.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*dto.OrderResponse, error) {
	next := model.OrderStatus(status)
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		admin, err := isAdmin(ctx, s.userRepo, userID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrOrderAccessDenied
		}
	}
	if !s.policy.Allow(order.Status, next) {
		return nil, ErrTransitionNotAllowed
	}

	order.Status = next
	order.NotificationsSent = false
	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := s.notifier.NotifyOrderStatus(ctx, order, next); err != nil {
		s.log.Warn("order status notification failed", "order_id", order.ID, "status", next, "error", err)
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}
