package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/media"
	"github.com/flicky/holohaven-api/internal/model"
)

type stubUploader struct {
	err   error
	calls int
}

func (u *stubUploader) Upload(_ context.Context, r io.Reader) (media.Asset, error) {
	u.calls++
	if u.err != nil {
		return media.Asset{}, u.err
	}
	return media.Asset{URL: "https://img.example/x.png", PublicID: "x"}, nil
}

func newProductFixture(uploader media.Uploader) (*ProductService, *mockProductRepo, *mockUserRepo) {
	products, users := newMockProductRepo(), newMockUserRepo()
	return NewProductService(products, users, nil, NewImageService(uploader), discardLog), products, users
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestProductService_Create_RequiresFields(t *testing.T) {
	svc, _, _ := newProductFixture(&stubUploader{})
	ctx := context.Background()

	for _, req := range []dto.CreateProductRequest{
		{Price: price("1"), Category: "Apparel"},
		{Name: "Hoodie", Category: "Apparel"},
		{Name: "Hoodie", Price: price("1")},
	} {
		_, err := svc.Create(ctx, uuid.New(), req, nil)
		assert.ErrorIs(t, err, ErrProductFieldsMissing)
	}
}

func TestProductService_Create_UploadFailureIsNotFatal(t *testing.T) {
	uploader := &stubUploader{err: media.ErrHostUnavailable}
	svc, products, _ := newProductFixture(uploader)
	owner := uuid.New()

	resp, err := svc.Create(context.Background(), owner, dto.CreateProductRequest{
		Name: "Hoodie", Price: price("35.00"), Category: "Apparel",
	}, bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	assert.Equal(t, 1, uploader.calls)
	assert.Empty(t, resp.Image)
	assert.Equal(t, &owner, products.products[resp.ID].UploadedBy)
	assert.True(t, resp.IsActive)
}

func TestProductService_Create_WithUploadedImage(t *testing.T) {
	svc, _, _ := newProductFixture(&stubUploader{})
	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreateProductRequest{
		Name: "Hoodie", Price: price("35"), Category: "Apparel", Image: "ignored-when-file-present",
	}, bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/x.png", resp.Image)
	assert.Equal(t, []string{"https://img.example/x.png"}, resp.Images)
}

func TestProductService_EditPermissions(t *testing.T) {
	svc, products, users := newProductFixture(&stubUploader{})
	owner := users.add(&model.User{Email: "o@x.com", Username: "owner"})
	stranger := users.add(&model.User{Email: "s@x.com", Username: "stranger"})
	admin := users.add(&model.User{Email: "a@x.com", Username: "admin", IsAdmin: true})
	ctx := context.Background()

	owned := products.add(&model.Product{Name: "Owned", UploadedBy: &owner.ID})
	seeded := products.add(&model.Product{Name: "Seeded"})
	name := "Renamed"

	_, err := svc.Update(ctx, stranger.ID, owned.ID, dto.UpdateProductRequest{Name: &name}, nil)
	assert.ErrorIs(t, err, ErrProductAccessDenied)
	assert.ErrorIs(t, svc.Delete(ctx, stranger.ID, owned.ID), ErrForbidden)

	_, err = svc.Update(ctx, owner.ID, owned.ID, dto.UpdateProductRequest{Name: &name}, nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, admin.ID, owned.ID, dto.UpdateProductRequest{Name: &name}, nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, stranger.ID, seeded.ID, dto.UpdateProductRequest{Name: &name}, nil)
	require.NoError(t, err, "seeded products are exempt from ownership")

	require.NoError(t, svc.Delete(ctx, owner.ID, owned.ID))
	assert.False(t, products.products[owned.ID].IsActive)
	_, err = svc.GetByID(ctx, owned.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_AddImage_UploadFailureIsUpstream(t *testing.T) {
	svc, products, _ := newProductFixture(&stubUploader{err: media.ErrHostUnavailable})
	seeded := products.add(&model.Product{Name: "Seeded"})

	_, err := svc.AddImage(context.Background(), uuid.New(), seeded.ID, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestProductService_AddImage_AppendsToGallery(t *testing.T) {
	svc, products, _ := newProductFixture(&stubUploader{})
	seeded := products.add(&model.Product{Name: "Seeded", Image: "first.png", Images: []string{"first.png"}})

	resp, err := svc.AddImage(context.Background(), uuid.New(), seeded.ID, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "first.png", resp.Image)
	assert.Equal(t, []string{"first.png", "https://img.example/x.png"}, resp.Images)
}

func TestProductService_Update_WithUploadedImage(t *testing.T) {
	uploader := &stubUploader{}
	svc, products, _ := newProductFixture(uploader)
	seeded := products.add(&model.Product{Name: "Seeded", Image: "first.png", Images: []string{"first.png"}})
	ignored := "ignored-when-file-present.png"
	name := "Renamed"

	resp, err := svc.Update(context.Background(), uuid.New(), seeded.ID,
		dto.UpdateProductRequest{Name: &name, Image: &ignored}, bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "Renamed", resp.Name)
	assert.Equal(t, "https://img.example/x.png", resp.Image)
	assert.Equal(t, []string{"first.png", "https://img.example/x.png"}, resp.Images)

	resp, err = svc.Update(context.Background(), uuid.New(), seeded.ID, dto.UpdateProductRequest{}, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Len(t, resp.Images, 2, "the same upload is not added twice")
}

func TestProductService_Update_UploadFailureLeavesProductUnchanged(t *testing.T) {
	svc, products, _ := newProductFixture(&stubUploader{err: media.ErrHostUnavailable})
	seeded := products.add(&model.Product{Name: "Seeded", Image: "first.png", Images: []string{"first.png"}})
	name := "Renamed"

	_, err := svc.Update(context.Background(), uuid.New(), seeded.ID, dto.UpdateProductRequest{Name: &name}, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "Seeded", products.products[seeded.ID].Name)
	assert.Equal(t, []string{"first.png"}, products.products[seeded.ID].Images)
}

func TestImageService_MapsErrors(t *testing.T) {
	_, err := NewImageService(&stubUploader{err: media.ErrUnsupportedFormat}).Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewImageService(&stubUploader{err: errors.New("disk full")}).Upload(context.Background(), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstream)
}

func TestProductService_CatalogListings(t *testing.T) {
	svc, products, _ := newProductFixture(&stubUploader{})
	ctx := context.Background()

	products.add(&model.Product{Name: "Plush", Category: "Plush", ReviewCount: 1})
	products.add(&model.Product{Name: "Hoodie", Category: "Apparel", ReviewCount: 5})
	gone := products.add(&model.Product{Name: "Old Poster", Category: "Poster"})
	gone.IsActive = false

	list, err := svc.List(ctx, model.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apparel", "Plush"}, categories)

	trending, err := svc.Trending(ctx)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "Hoodie", trending[0].Name)
}
