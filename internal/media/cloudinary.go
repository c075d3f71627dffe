package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryHost struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryHost(name, key, secret, folder string) (Host, error) {
	cld, err := cloudinary.NewFromParams(name, key, secret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &cloudinaryHost{cld: cld, folder: folder}, nil
}

func (h *cloudinaryHost) Put(ctx context.Context, r io.Reader, publicID string) (Asset, error) {
	res, err := h.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   h.folder,
		PublicID: publicID,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// disabledHost is used when no image host credentials are configured.
type disabledHost struct{}

func NewDisabledHost() Host { return disabledHost{} }

func (disabledHost) Put(context.Context, io.Reader, string) (Asset, error) {
	return Asset{}, errors.New("image host not configured")
}
