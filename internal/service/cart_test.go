package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/holohaven-api/internal/model"
)

func TestCartService_AddItem_IncrementsExistingLine(t *testing.T) {
	cartRepo, productRepo := newMockCartRepo(), newMockProductRepo()
	p := productRepo.add(&model.Product{Name: "Hoodie", Price: decimal.RequireFromString("35.00")})
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, p.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), userID, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("105")))
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	productRepo := newMockProductRepo()
	inactive := productRepo.add(&model.Product{Name: "Old"})
	productRepo.products[inactive.ID].IsActive = false
	svc := NewCartService(newMockCartRepo(), productRepo)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = svc.AddItem(context.Background(), uuid.New(), inactive.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_TotalReflectsLivePrice(t *testing.T) {
	cartRepo, productRepo := newMockCartRepo(), newMockProductRepo()
	p := productRepo.add(&model.Product{Name: "Mug", Price: decimal.RequireFromString("10")})
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()
	_, err := svc.AddItem(context.Background(), userID, p.ID, 2)
	require.NoError(t, err)

	productRepo.products[p.ID].Price = decimal.RequireFromString("12.50")
	cart, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("25")))
}

func TestCartService_SetItemQuantity(t *testing.T) {
	cartRepo, productRepo := newMockCartRepo(), newMockProductRepo()
	p := productRepo.add(&model.Product{Name: "Mug", Price: decimal.NewFromInt(10)})
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.SetItemQuantity(ctx, userID, p.ID, 3)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.AddItem(ctx, userID, p.ID, 1)
	require.NoError(t, err)

	_, err = svc.SetItemQuantity(ctx, userID, uuid.New(), 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	cart, err := svc.SetItemQuantity(ctx, userID, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_RemovalIsIdempotent(t *testing.T) {
	cartRepo, productRepo := newMockCartRepo(), newMockProductRepo()
	keep := productRepo.add(&model.Product{Name: "Mug", Price: decimal.NewFromInt(10)})
	drop := productRepo.add(&model.Product{Name: "Pin", Price: decimal.NewFromInt(3)})
	svc := NewCartService(cartRepo, productRepo)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.SetItemQuantity(ctx, userID, drop.ID, 0)
	require.NoError(t, err, "zero quantity without a cart is a no-op")

	_, err = svc.AddItem(ctx, userID, keep.ID, 1)
	require.NoError(t, err)
	before, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, userID, drop.ID, 2)
	require.NoError(t, err)
	_, err = svc.SetItemQuantity(ctx, userID, drop.ID, 0)
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, userID, drop.ID)
	require.NoError(t, err)
	after, err := svc.SetItemQuantity(ctx, userID, drop.ID, -1)
	require.NoError(t, err)

	assert.Equal(t, before.Items, after.Items)
	assert.True(t, before.TotalPrice.Equal(after.TotalPrice))
}

func TestCartService_ClearMissingCart(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockProductRepo())
	assert.NoError(t, svc.Clear(context.Background(), uuid.New()))
}
