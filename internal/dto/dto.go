package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/holohaven-api/internal/model"
)

func init() {
	// Prices go over the wire as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleAuthRequest struct {
	GoogleID       string `json:"googleId" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

type AuthResponse struct {
	Token  string       `json:"token"`
	UserID uuid.UUID    `json:"userId"`
	User   UserResponse `json:"user"`
}

type UserResponse struct {
	ID             uuid.UUID      `json:"_id"`
	Email          string         `json:"email"`
	Username       string         `json:"username"`
	FullName       string         `json:"fullName"`
	Phone          string         `json:"phone"`
	Bio            string         `json:"bio"`
	Address        *model.Address `json:"address,omitempty"`
	ProfilePicture string         `json:"profilePicture"`
	IsAdmin        bool           `json:"isAdmin"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type UpdateProfileRequest struct {
	FullName        *string        `json:"fullName"`
	Phone           *string        `json:"phone"`
	Bio             *string        `json:"bio"`
	Address         *model.Address `json:"address"`
	Username        *string        `json:"username"`
	Email           *string        `json:"email"`
	Password        *string        `json:"password"`
	CurrentPassword string         `json:"currentPassword"`
}

type RegisterTokenRequest struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// --- Product ---

// CreateProductRequest carries either a JSON body or the text fields of a
// multipart form. Image holds a URL when no file is attached.
type CreateProductRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	Category    string              `json:"category"`
	VtuberTag   string              `json:"vtuberTag"`
	Image       string              `json:"image"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	VtuberTag   *string          `json:"vtuberTag"`
	Image       *string          `json:"image"`
	IsActive    *bool            `json:"isActive"`
}

type ListProductsRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Vtuber   string `form:"vtuber"`
	MinPrice string `form:"minPrice"`
	MaxPrice string `form:"maxPrice"`
}

// Filter converts the query into a repository filter. Unparseable bounds
// are rejected rather than ignored.
func (r ListProductsRequest) Filter() (model.ProductFilter, error) {
	f := model.ProductFilter{Search: r.Search, Category: r.Category, Vtuber: r.Vtuber}
	if r.MinPrice != "" {
		d, err := decimal.NewFromString(r.MinPrice)
		if err != nil {
			return f, err
		}
		f.MinPrice = &d
	}
	if r.MaxPrice != "" {
		d, err := decimal.NewFromString(r.MaxPrice)
		if err != nil {
			return f, err
		}
		f.MaxPrice = &d
	}
	return f, nil
}

type ProductResponse struct {
	ID            uuid.UUID       `json:"_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	VtuberTag     string          `json:"vtuberTag"`
	Image         string          `json:"image"`
	Images        []string        `json:"images"`
	UploadedBy    *uuid.UUID      `json:"uploadedBy"`
	AverageRating float64         `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	ID         uuid.UUID          `json:"_id"`
	UserID     uuid.UUID          `json:"userId"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"totalPrice"`
}

type CartItemResponse struct {
	Product  ProductResponse `json:"productId"`
	Quantity int             `json:"quantity"`
}

// --- Order ---

type CheckoutRequest struct {
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	TransactionID   string                `json:"transactionId"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID                uuid.UUID             `json:"_id"`
	UserID            uuid.UUID             `json:"userId"`
	User              *OrderUserResponse    `json:"user,omitempty"`
	Items             []OrderItemResponse   `json:"items"`
	TotalPrice        decimal.Decimal       `json:"totalPrice"`
	Status            model.OrderStatus     `json:"status"`
	ShippingAddress   model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod     string                `json:"paymentMethod"`
	TransactionID     string                `json:"transactionId"`
	NotificationsSent bool                  `json:"notificationsSent"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

type OrderUserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type OrderItemResponse struct {
	ProductID uuid.UUID        `json:"productId"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Quantity  int              `json:"quantity"`
	Image     string           `json:"image"`
	Product   *ProductResponse `json:"product,omitempty"`
}

// --- Review ---

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	OrderID   uuid.UUID `json:"orderId" binding:"required"`
	Rating    int       `json:"rating" binding:"required"`
	Comment   string    `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type ReviewResponse struct {
	ID         uuid.UUID        `json:"_id"`
	ProductID  uuid.UUID        `json:"productId"`
	UserID     uuid.UUID        `json:"userId"`
	OrderID    uuid.UUID        `json:"orderId"`
	Rating     int              `json:"rating"`
	Comment    string           `json:"comment"`
	IsVerified bool             `json:"isVerified"`
	User       *ReviewAuthor    `json:"user,omitempty"`
	Product    *ReviewedProduct `json:"product,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type ReviewAuthor struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

type ReviewedProduct struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// --- Promotion ---

type CreatePromotionRequest struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Image                string     `json:"image"`
	DiscountPercent      int        `json:"discountPercent"`
	ValidFrom            time.Time  `json:"validFrom"`
	ValidUntil           time.Time  `json:"validUntil"`
	ApplicableProducts   StringList `json:"applicableProducts"`
	ApplicableCategories StringList `json:"applicableCategories"`
	IsActive             *bool      `json:"isActive"`
}

type UpdatePromotionRequest struct {
	Title                *string     `json:"title"`
	Description          *string     `json:"description"`
	Image                *string     `json:"image"`
	DiscountPercent      *int        `json:"discountPercent"`
	ValidFrom            *time.Time  `json:"validFrom"`
	ValidUntil           *time.Time  `json:"validUntil"`
	ApplicableProducts   *StringList `json:"applicableProducts"`
	ApplicableCategories *StringList `json:"applicableCategories"`
	IsActive             *bool       `json:"isActive"`
}

type PromotionResponse struct {
	ID                   uuid.UUID   `json:"_id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Image                string      `json:"image"`
	DiscountPercent      int         `json:"discountPercent"`
	ValidFrom            time.Time   `json:"validFrom"`
	ValidUntil           time.Time   `json:"validUntil"`
	ApplicableProducts   []uuid.UUID `json:"applicableProducts"`
	ApplicableCategories []string    `json:"applicableCategories"`
	IsActive             bool        `json:"isActive"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// --- Notification ---

type NotificationResponse struct {
	ID        uuid.UUID              `json:"_id"`
	UserID    uuid.UUID              `json:"userId"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Type      model.NotificationType `json:"type"`
	Data      map[string]string      `json:"data"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
}

type SendPromotionRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Audience  string    `json:"audience"`
}

type PromotionSendResponse struct {
	Message string          `json:"message"`
	Sent    int             `json:"sent"`
	Product PromotedProduct `json:"product"`
}

type PromotedProduct struct {
	ID    uuid.UUID       `json:"_id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}
