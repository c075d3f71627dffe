package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/flicky/holohaven-api/internal/media"
)

type ImageService struct {
	uploader media.Uploader
}

func NewImageService(uploader media.Uploader) *ImageService {
	return &ImageService{uploader: uploader}
}

func (s *ImageService) Upload(ctx context.Context, r io.Reader) (media.Asset, error) {
	asset, err := s.uploader.Upload(ctx, r)
	switch {
	case err == nil:
		return asset, nil
	case errors.Is(err, media.ErrUnsupportedFormat):
		return media.Asset{}, ErrUnsupportedImage
	case errors.Is(err, media.ErrHostUnavailable):
		return media.Asset{}, fmt.Errorf("%w: %v", ErrImageHost, err)
	default:
		return media.Asset{}, fmt.Errorf("upload image: %w", err)
	}
}
