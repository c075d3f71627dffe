package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	PasswordHash   string
	FullName       string
	Phone          string
	Bio            string
	Address        *Address
	ProfilePicture string
	GoogleID       string
	GoogleEmail    string
	IsAdmin        bool
	PushTokens     []PushToken
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PushToken struct {
	Token      string
	LastUsedAt time.Time
}

// Recipient is a fan-out audience member with whatever push tokens it holds.
type Recipient struct {
	UserID uuid.UUID
	Tokens []string
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	Category      string
	VtuberTag     string
	Image         string
	Images        []string
	UploadedBy    *uuid.UUID // nil for seeded products
	AverageRating float64
	ReviewCount   int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsSeeded reports whether the product was created by the system rather than a user.
func (p *Product) IsSeeded() bool { return p.UploadedBy == nil }

type ProductFilter struct {
	Search   string
	Category string
	Vtuber   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item joined against the live catalog.
type CartLine struct {
	Product  Product
	Quantity int
}

type CartView struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Lines      []CartLine
	TotalPrice decimal.Decimal
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type ShippingAddress struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Country  string `json:"country,omitempty"`
}

type Order struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Items             []OrderItem
	TotalPrice        decimal.Decimal
	Status            OrderStatus
	ShippingAddress   ShippingAddress
	PaymentMethod     string
	TransactionID     string
	NotificationsSent bool // reset on every status change, never read before sending
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// populated only for admin listings
	Username  string
	UserEmail string
}

// OrderItem is a snapshot of the product taken at checkout.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Image     string
}

func (o *Order) Contains(productID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

type Review struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	UserID     uuid.UUID
	OrderID    uuid.UUID
	Rating     int
	Comment    string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// joined display fields
	Username     string
	UserPicture  string
	ProductName  string
	ProductImage string
}

type Promotion struct {
	ID                   uuid.UUID
	Title                string
	Description          string
	Image                string
	DiscountPercent      int
	ValidFrom            time.Time
	ValidUntil           time.Time
	ApplicableProducts   []uuid.UUID
	ApplicableCategories []string
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type NotificationType string

const (
	NotificationOrder     NotificationType = "order"
	NotificationPromotion NotificationType = "promotion"
	NotificationSystem    NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	Type      NotificationType
	Data      map[string]string
	Read      bool
	CreatedAt time.Time
}
