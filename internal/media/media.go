// Package media normalises uploaded images and hands them to the image host.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// MaxWidth is the widest image kept after normalisation.
const MaxWidth = 1024

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrHostUnavailable   = errors.New("image host unavailable")
)

type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Host stores an already-normalised image.
type Host interface {
	Put(ctx context.Context, r io.Reader, publicID string) (Asset, error)
}

type Uploader interface {
	Upload(ctx context.Context, r io.Reader) (Asset, error)
}

type imageUploader struct {
	host Host
}

func NewUploader(host Host) Uploader {
	return &imageUploader{host: host}
}

func (u *imageUploader) Upload(ctx context.Context, r io.Reader) (Asset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}
	body, err := Normalize(raw)
	if err != nil {
		return Asset{}, err
	}
	asset, err := u.host.Put(ctx, bytes.NewReader(body), uuid.NewString())
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	return asset, nil
}

// Normalize shrinks jpeg and png images wider than MaxWidth, preserving the
// aspect ratio and the source format. webp is returned unchanged.
func Normalize(raw []byte) ([]byte, error) {
	switch http.DetectContentType(raw) {
	case "image/webp":
		return raw, nil
	case "image/jpeg":
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		if img.Bounds().Dx() <= MaxWidth {
			return raw, nil
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, shrink(img), &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), nil
	case "image/png":
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		if img.Bounds().Dx() <= MaxWidth {
			return raw, nil
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, shrink(img)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func shrink(img image.Image) image.Image {
	return resize.Resize(MaxWidth, 0, img, resize.Lanczos3)
}
