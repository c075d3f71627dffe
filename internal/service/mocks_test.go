package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/push"
	"github.com/flicky/holohaven-api/internal/realtime"
	"github.com/flicky/holohaven-api/internal/repository"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- users ---

type mockUserRepo struct {
	byID   map[uuid.UUID]*model.User
	tokens map[uuid.UUID][]model.PushToken
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[uuid.UUID]*model.User), tokens: make(map[uuid.UUID][]model.PushToken)}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.byID[u.ID] = u
	return u
}

func (m *mockUserRepo) clash(u *model.User) bool {
	for _, other := range m.byID {
		if other.ID != u.ID && (other.Email == u.Email || other.Username == u.Username) {
			return true
		}
	}
	return false
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if m.clash(u) {
		return repository.ErrDuplicate
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByGoogleIDOrEmail(_ context.Context, googleID, email string) (*model.User, error) {
	for _, u := range m.byID {
		if (googleID != "" && u.GoogleID == googleID) || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, u *model.User) error {
	if m.clash(u) {
		return repository.ErrDuplicate
	}
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) SetAdmin(_ context.Context, id uuid.UUID, admin bool) error {
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsAdmin = admin
	return nil
}

func (m *mockUserRepo) UpsertPushToken(_ context.Context, userID uuid.UUID, token string, at time.Time) error {
	for i, t := range m.tokens[userID] {
		if t.Token == token {
			m.tokens[userID][i].LastUsedAt = at
			return nil
		}
	}
	m.tokens[userID] = append(m.tokens[userID], model.PushToken{Token: token, LastUsedAt: at})
	return nil
}

func (m *mockUserRepo) ListPushTokens(_ context.Context, userID uuid.UUID) ([]string, error) {
	var out []string
	for _, t := range m.tokens[userID] {
		out = append(out, t.Token)
	}
	return out, nil
}

func (m *mockUserRepo) TouchPushTokens(_ context.Context, tokens []string, at time.Time) error {
	return nil
}

func (m *mockUserRepo) DeleteStalePushTokens(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, ts := range m.tokens {
		kept := ts[:0]
		for _, t := range ts {
			if t.LastUsedAt.Before(before) {
				n++
				continue
			}
			kept = append(kept, t)
		}
		m.tokens[id] = kept
	}
	return n, nil
}

func (m *mockUserRepo) ListRecipients(ctx context.Context, nonAdminOnly, withTokensOnly bool) ([]model.Recipient, error) {
	var out []model.Recipient
	for _, u := range m.byID {
		if nonAdminOnly && u.IsAdmin {
			continue
		}
		tokens, _ := m.ListPushTokens(ctx, u.ID)
		if withTokensOnly && len(tokens) == 0 {
			continue
		}
		out = append(out, model.Recipient{UserID: u.ID, Tokens: tokens})
	}
	return out, nil
}

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context, _ model.ProductFilter) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListCategories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockProductRepo) ListTrending(ctx context.Context, limit int) ([]model.Product, error) {
	all, _ := m.List(ctx, model.ProductFilter{})
	sort.Slice(all, func(i, j int) bool { return all[i].ReviewCount > all[j].ReviewCount })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockProductRepo) RandomActive(_ context.Context) (*model.Product, error) {
	for _, p := range m.products {
		if p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.products[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.IsActive = false
	return nil
}

func (m *mockProductRepo) UpdateRating(_ context.Context, id uuid.UUID, avg float64, count int) error {
	if p, ok := m.products[id]; ok {
		p.AverageRating = avg
		p.ReviewCount = count
	}
	return nil
}

// --- carts ---

type mockCartRepo struct {
	carts     map[uuid.UUID]*model.Cart // by user
	deleteErr error
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*model.Cart)}
}

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	if c, ok := m.carts[userID]; ok {
		return c, nil
	}
	c := &model.Cart{ID: uuid.New(), UserID: userID}
	m.carts[userID] = c
	return c, nil
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.carts[userID], nil
}

func (m *mockCartRepo) byCartID(cartID uuid.UUID) *model.Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	c := m.byCartID(item.CartID)
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, *item)
	return nil
}

func (m *mockCartRepo) SetItemQuantity(_ context.Context, cartID, productID uuid.UUID, quantity int) (bool, error) {
	c := m.byCartID(cartID)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, cartID, productID uuid.UUID) error {
	c := m.byCartID(cartID)
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return nil
}

func (m *mockCartRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.carts, userID)
	return nil
}

// --- orders ---

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *model.Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *model.Order) error {
	stored := m.orders[o.ID]
	stored.Status = o.Status
	stored.NotificationsSent = o.NotificationsSent
	return nil
}

// --- reviews ---

type mockReviewRepo struct {
	reviews map[uuid.UUID]*model.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[uuid.UUID]*model.Review)}
}

func (m *mockReviewRepo) Create(ctx context.Context, r *model.Review) error {
	if existing, _ := m.GetByProductAndUser(ctx, r.ProductID, r.UserID); existing != nil {
		return repository.ErrDuplicate
	}
	r.ID = uuid.New()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) GetByProductAndUser(_ context.Context, productID, userID uuid.UUID) (*model.Review, error) {
	for _, r := range m.reviews {
		if r.ProductID == productID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockReviewRepo) Update(_ context.Context, r *model.Review) error {
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) ListRatings(_ context.Context, productID uuid.UUID) ([]int, error) {
	var out []int
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// --- promotions ---

type mockPromotionRepo struct {
	promos map[uuid.UUID]*model.Promotion
}

func newMockPromotionRepo() *mockPromotionRepo {
	return &mockPromotionRepo{promos: make(map[uuid.UUID]*model.Promotion)}
}

func (m *mockPromotionRepo) Create(_ context.Context, p *model.Promotion) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.promos[p.ID] = &cp
	return nil
}

func (m *mockPromotionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, ok := m.promos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPromotionRepo) ListValid(_ context.Context, now time.Time) ([]model.Promotion, error) {
	var out []model.Promotion
	for _, p := range m.promos {
		if p.IsActive && !now.Before(p.ValidFrom) && !now.After(p.ValidUntil) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPromotionRepo) Update(_ context.Context, p *model.Promotion) error {
	cp := *p
	m.promos[p.ID] = &cp
	return nil
}

func (m *mockPromotionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.promos, id)
	return nil
}

// --- notifications ---

type mockNotificationRepo struct {
	rows      []model.Notification
	createErr error
}

func newMockNotificationRepo() *mockNotificationRepo { return &mockNotificationRepo{} }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.rows = append(m.rows, *n)
	return nil
}

func (m *mockNotificationRepo) CreateMany(_ context.Context, ns []model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	for i := range ns {
		ns[i].ID = uuid.New()
		ns[i].CreatedAt = time.Now()
		m.rows = append(m.rows, ns[i])
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) (*model.Notification, error) {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].Read = true
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockNotificationRepo) countFor(userID uuid.UUID, typ model.NotificationType) int {
	n := 0
	for _, r := range m.rows {
		if r.UserID == userID && r.Type == typ {
			n++
		}
	}
	return n
}

// --- push and live delivery ---

type recordingDispatcher struct {
	batches [][]push.Message
	result  func(msgs []push.Message) push.Result
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msgs []push.Message) push.Result {
	d.batches = append(d.batches, msgs)
	if d.result != nil {
		return d.result(msgs)
	}
	return push.Result{Sent: len(msgs)}
}

func (d *recordingDispatcher) messages() []push.Message {
	var out []push.Message
	for _, b := range d.batches {
		out = append(out, b...)
	}
	return out
}

type recordingLive struct {
	events map[uuid.UUID][]realtime.Event
}

func newRecordingLive() *recordingLive {
	return &recordingLive{events: make(map[uuid.UUID][]realtime.Event)}
}

func (l *recordingLive) Publish(userID uuid.UUID, ev realtime.Event) {
	l.events[userID] = append(l.events[userID], ev)
}

type nopCache struct{ invalidated []uuid.UUID }

func (c *nopCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.invalidated = append(c.invalidated, id)
}
