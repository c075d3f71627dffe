package service

import (
	"github.com/google/uuid"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
)

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: u.ID, Email: u.Email, Username: u.Username,
		FullName: u.FullName, Phone: u.Phone, Bio: u.Bio, Address: u.Address,
		ProfilePicture: u.ProfilePicture, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt,
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		VtuberTag:     p.VtuberTag,
		Image:         p.Image,
		Images:        images,
		UploadedBy:    p.UploadedBy,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: it.ProductID, Name: it.Name, Price: it.Price,
			Quantity: it.Quantity, Image: it.Image,
		})
	}
	resp := dto.OrderResponse{
		ID:                o.ID,
		UserID:            o.UserID,
		Items:             items,
		TotalPrice:        o.TotalPrice,
		Status:            o.Status,
		ShippingAddress:   o.ShippingAddress,
		PaymentMethod:     o.PaymentMethod,
		TransactionID:     o.TransactionID,
		NotificationsSent: o.NotificationsSent,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.Username != "" || o.UserEmail != "" {
		resp.User = &dto.OrderUserResponse{Username: o.Username, Email: o.UserEmail}
	}
	return resp
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID: r.ID, ProductID: r.ProductID, UserID: r.UserID, OrderID: r.OrderID,
		Rating: r.Rating, Comment: r.Comment, IsVerified: r.IsVerified,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.Username != "" {
		resp.User = &dto.ReviewAuthor{Username: r.Username, ProfilePicture: r.UserPicture}
	}
	if r.ProductName != "" {
		resp.Product = &dto.ReviewedProduct{Name: r.ProductName, Image: r.ProductImage}
	}
	return resp
}

func toPromotionResponse(p *model.Promotion) dto.PromotionResponse {
	products := p.ApplicableProducts
	if products == nil {
		products = []uuid.UUID{}
	}
	categories := p.ApplicableCategories
	if categories == nil {
		categories = []string{}
	}
	return dto.PromotionResponse{
		ID: p.ID, Title: p.Title, Description: p.Description, Image: p.Image,
		DiscountPercent: p.DiscountPercent, ValidFrom: p.ValidFrom, ValidUntil: p.ValidUntil,
		ApplicableProducts: products, ApplicableCategories: categories,
		IsActive: p.IsActive, CreatedAt: p.CreatedAt,
	}
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	return dto.NotificationResponse{
		ID: n.ID, UserID: n.UserID, Title: n.Title, Body: n.Body,
		Type: n.Type, Data: data, Read: n.Read, CreatedAt: n.CreatedAt,
	}
}
