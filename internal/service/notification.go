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
	"github.com/flicky/holohaven-api/internal/push"
	"github.com/flicky/holohaven-api/internal/realtime"
	"github.com/flicky/holohaven-api/internal/repository"
)

const notificationListLimit = 50

type Audience int

const (
	AudienceNonAdmins Audience = iota
	AudienceTokenHolders
)

func (a Audience) String() string {
	if a == AudienceTokenHolders {
		return "token-holders"
	}
	return "non-admins"
}

func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "non-admins":
		return AudienceNonAdmins, nil
	case "token-holders":
		return AudienceTokenHolders, nil
	}
	return 0, ErrUnknownAudience
}

type LivePublisher interface {
	Publish(userID uuid.UUID, ev realtime.Event)
}

type PromotionContent struct {
	Title string
	Body  string
	Data  map[string]string
}

type FanoutResult struct {
	Recipients int
	Push       push.Result
}

func (r FanoutResult) Handed() int { return r.Push.Sent + r.Push.Queued }

type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	products      repository.ProductRepository
	dispatcher    push.Dispatcher
	live          LivePublisher
	log           *slog.Logger
	now           func() time.Time
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
	dispatcher push.Dispatcher,
	live LivePublisher,
	log *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		products:      products,
		dispatcher:    dispatcher,
		live:          live,
		log:           log,
		now:           time.Now,
	}
}

// NotifyOrderStatus records one notification for the order's owner and
// pushes it to each of the owner's devices. Only the write can fail; push
// problems are logged.
func (s *NotificationService) NotifyOrderStatus(ctx context.Context, order *model.Order, status model.OrderStatus) error {
	n := &model.Notification{
		UserID: order.UserID,
		Title:  "Order Update",
		Body:   fmt.Sprintf("Your order #%s status: %s", shortID(order.ID), status),
		Type:   model.NotificationOrder,
		Data: map[string]string{
			"type":    string(model.NotificationOrder),
			"orderId": order.ID.String(),
			"status":  string(status),
		},
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("save order notification: %w", err)
	}
	s.publish(n)

	tokens, err := s.users.ListPushTokens(ctx, order.UserID)
	if err != nil {
		s.log.Warn("list push tokens", "user_id", order.UserID, "error", err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}
	res := s.dispatcher.Dispatch(ctx, push.Fanout(tokens, n.Title, n.Body, n.Data))
	s.logPush("order status", res, "order_id", order.ID)
	return nil
}

// NotifyPromotion writes one notification per audience member in a single
// batch, then pushes to the members that hold tokens. Re-invoking sends
// duplicates.
func (s *NotificationService) NotifyPromotion(ctx context.Context, content PromotionContent, audience Audience) (FanoutResult, error) {
	recipients, err := s.users.ListRecipients(ctx, audience == AudienceNonAdmins, audience == AudienceTokenHolders)
	if err != nil {
		return FanoutResult{}, fmt.Errorf("list recipients: %w", err)
	}
	res := FanoutResult{Recipients: len(recipients)}
	if len(recipients) == 0 {
		return res, nil
	}

	rows := make([]model.Notification, 0, len(recipients))
	var tokens []string
	for _, r := range recipients {
		rows = append(rows, model.Notification{
			UserID: r.UserID,
			Title:  content.Title,
			Body:   content.Body,
			Type:   model.NotificationPromotion,
			Data:   content.Data,
		})
		tokens = append(tokens, r.Tokens...)
	}
	if err := s.notifications.CreateMany(ctx, rows); err != nil {
		return FanoutResult{}, fmt.Errorf("save promotion notifications: %w", err)
	}
	for i := range rows {
		s.publish(&rows[i])
	}

	if len(tokens) > 0 {
		res.Push = s.dispatcher.Dispatch(ctx, push.Fanout(tokens, content.Title, content.Body, content.Data))
		s.logPush("promotion", res.Push, "audience", audience.String(), "recipients", res.Recipients)
	}
	return res, nil
}

func (s *NotificationService) NotifyNewPromotion(ctx context.Context, promo *model.Promotion) (FanoutResult, error) {
	return s.NotifyPromotion(ctx, PromotionContent{
		Title: "🎉 New Promotion!",
		Body:  promo.Title,
		Data: map[string]string{
			"type":        string(model.NotificationPromotion),
			"promotionId": promo.ID.String(),
		},
	}, AudienceTokenHolders)
}

func (s *NotificationService) SendProductPromotion(ctx context.Context, req dto.SendPromotionRequest) (*dto.PromotionSendResponse, error) {
	audience, err := ParseAudience(req.Audience)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	content := productPromotion(product,
		fmt.Sprintf("🎉 Special: %s", product.Name),
		fmt.Sprintf("Check out %s - $%s", product.Name, product.Price.StringFixed(2)))
	if req.Title != "" {
		content.Title = req.Title
	}
	if req.Message != "" {
		content.Body = req.Message
	}

	res, err := s.NotifyPromotion(ctx, content, audience)
	if err != nil {
		return nil, err
	}
	return &dto.PromotionSendResponse{
		Message: fmt.Sprintf("Sent %d promotions", res.Handed()),
		Sent:    res.Handed(),
		Product: promotedProduct(product),
	}, nil
}

func (s *NotificationService) SendRandomPromotion(ctx context.Context) (*dto.PromotionSendResponse, error) {
	product, err := s.products.RandomActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("pick product: %w", err)
	}
	if product == nil {
		return nil, ErrNoActiveProducts
	}

	content := productPromotion(product,
		fmt.Sprintf("🎉 Deal Alert: %s", product.Name),
		fmt.Sprintf("Don't miss out on %s - Only $%s!", product.Name, product.Price.StringFixed(2)))

	res, err := s.NotifyPromotion(ctx, content, AudienceNonAdmins)
	if err != nil {
		return nil, err
	}
	return &dto.PromotionSendResponse{
		Message: fmt.Sprintf("Sent %d promotion notifications for random product", res.Handed()),
		Sent:    res.Handed(),
		Product: promotedProduct(product),
	}, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]dto.NotificationResponse, error) {
	ns, err := s.notifications.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]dto.NotificationResponse, 0, len(ns))
	for i := range ns {
		out = append(out, toNotificationResponse(&ns[i]))
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*dto.NotificationResponse, error) {
	n, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	resp := toNotificationResponse(n)
	return &resp, nil
}

// RegisterToken records a device token. Registering the same token again
// only refreshes its last use.
func (s *NotificationService) RegisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrPushTokenRequired
	}
	if !push.IsValidToken(token) {
		return ErrInvalidPushToken
	}
	if err := s.users.UpsertPushToken(ctx, userID, token, s.now()); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	return nil
}

func (s *NotificationService) publish(n *model.Notification) {
	if s.live == nil {
		return
	}
	s.live.Publish(n.UserID, realtime.Event{Type: "notification", Payload: toNotificationResponse(n)})
}

func (s *NotificationService) logPush(kind string, res push.Result, attrs ...any) {
	attrs = append(attrs, "kind", kind, "sent", res.Sent, "queued", res.Queued, "skipped", res.Skipped, "failed_chunks", res.FailedChunks)
	if res.FailedChunks > 0 {
		s.log.Warn("push fan-out partially failed", attrs...)
		return
	}
	s.log.Info("push fan-out", attrs...)
}

func productPromotion(p *model.Product, title, body string) PromotionContent {
	return PromotionContent{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":        string(model.NotificationPromotion),
			"productId":   p.ID.String(),
			"productName": p.Name,
			"price":       p.Price.String(),
			"image":       p.Image,
			"category":    p.Category,
		},
	}
}

func promotedProduct(p *model.Product) dto.PromotedProduct {
	return dto.PromotedProduct{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return strings.ToUpper(s[len(s)-6:])
}
