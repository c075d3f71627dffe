package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OfflineCart tries the server first. When it is unreachable the mutation
// lands in the mirror and the result is marked Offline. Server errors are
// returned as-is. There is no merge: the next successful call overwrites
// the mirror with the server copy.
type OfflineCart struct {
	remote *RemoteCart
	mirror *Mirror
	log    *slog.Logger
	now    func() time.Time
}

func NewOfflineCart(remote *RemoteCart, mirror *Mirror, log *slog.Logger) *OfflineCart {
	return &OfflineCart{remote: remote, mirror: mirror, log: log, now: time.Now}
}

func (c *OfflineCart) Get(ctx context.Context) (*Cart, error) {
	resp, err := c.remote.Get(ctx)
	if err == nil {
		return c.sync(ctx, fromResponse(resp, c.now()))
	}
	return c.fallback(ctx, err, nil)
}

// Add needs the product's display fields so the line can be rendered while
// offline.
func (c *OfflineCart) Add(ctx context.Context, item Item) (*Cart, error) {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	resp, err := c.remote.Add(ctx, item.ProductID, item.Quantity)
	if err == nil {
		return c.sync(ctx, fromResponse(resp, c.now()))
	}
	return c.fallback(ctx, err, func() error {
		item.AddedAt = c.now()
		return c.mirror.Add(ctx, item)
	})
}

func (c *OfflineCart) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*Cart, error) {
	resp, err := c.remote.SetQuantity(ctx, productID, quantity)
	if err == nil {
		return c.sync(ctx, fromResponse(resp, c.now()))
	}
	return c.fallback(ctx, err, func() error {
		return c.mirror.SetQuantity(ctx, productID, quantity)
	})
}

func (c *OfflineCart) Remove(ctx context.Context, productID uuid.UUID) (*Cart, error) {
	resp, err := c.remote.Remove(ctx, productID)
	if err == nil {
		return c.sync(ctx, fromResponse(resp, c.now()))
	}
	return c.fallback(ctx, err, func() error {
		return c.mirror.Remove(ctx, productID)
	})
}

func (c *OfflineCart) Clear(ctx context.Context) (*Cart, error) {
	err := c.remote.Clear(ctx)
	if err == nil {
		return c.sync(ctx, nil)
	}
	return c.fallback(ctx, err, func() error {
		return c.mirror.Clear(ctx)
	})
}

func (c *OfflineCart) sync(ctx context.Context, items []Item) (*Cart, error) {
	if err := c.mirror.Replace(ctx, items); err != nil {
		return nil, err
	}
	return newCart(items, false), nil
}

func (c *OfflineCart) fallback(ctx context.Context, remoteErr error, apply func() error) (*Cart, error) {
	if !IsNetworkError(remoteErr) {
		return nil, remoteErr
	}
	c.log.Warn("cart server unreachable, using offline copy", "error", remoteErr)

	if apply != nil {
		if err := apply(); err != nil {
			return nil, err
		}
	}
	items, err := c.mirror.Items(ctx)
	if err != nil {
		return nil, err
	}
	return newCart(items, true), nil
}
