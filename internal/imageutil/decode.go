// Package imageutil decodes and classifies uploaded vehicle photos.
//
// Importing this package registers decoders for JPEG, PNG, GIF, WebP, BMP and TIFF.
package imageutil

import (
	"bytes"
	"image"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
)

// AdvisorySizeLimit is the upload size above which callers should warn.
// It is not enforced.
const AdvisorySizeLimit = 10 << 20

// DecodeError reports image bytes that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode image: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrorCategory implements errors.CategorizedError.
func (e *DecodeError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryImageDecode
}

// ErrEmpty is wrapped by DecodeError when no bytes were supplied.
var ErrEmpty = errors.NewStd("no image data")

// ErrTooLarge is wrapped by DecodeError when the declared dimensions exceed
// the pixel limit.
var ErrTooLarge = errors.NewStd("image dimensions exceed the pixel limit")

// DefaultMaxPixels bounds width*height of a decoded image. 50 megapixels
// covers current phone cameras.
const DefaultMaxPixels int64 = 50_000_000

var maxPixels atomic.Int64

func init() {
	maxPixels.Store(DefaultMaxPixels)
}

// SetMaxPixels sets the decode pixel limit. n <= 0 restores DefaultMaxPixels.
func SetMaxPixels(n int64) {
	if n <= 0 {
		n = DefaultMaxPixels
	}
	maxPixels.Store(n)
}

// MaxPixels returns the current decode pixel limit.
func MaxPixels() int64 {
	return maxPixels.Load()
}

// Decode decodes data in any registered format and returns the format name.
// The header is checked first so an image declaring more than MaxPixels
// pixels is rejected before any pixel buffer is allocated.
func Decode(data []byte) (image.Image, string, error) {
	if _, _, err := DecodeConfig(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}

	return img, format, nil
}

// DecodeConfig returns the dimensions and format without decoding pixel data.
// Dimensions that are empty or above MaxPixels are a DecodeError.
func DecodeConfig(data []byte) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", &DecodeError{Err: ErrEmpty}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", &DecodeError{Err: err}
	}

	limit := MaxPixels()
	switch {
	case cfg.Width <= 0 || cfg.Height <= 0:
		return image.Config{}, "", &DecodeError{Err: fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)}
	case int64(cfg.Width)*int64(cfg.Height) > limit:
		return image.Config{}, "", &DecodeError{
			Err: fmt.Errorf("%w: %dx%d, limit %d pixels", ErrTooLarge, cfg.Width, cfg.Height, limit),
		}
	}

	return cfg, format, nil
}

// ContentType returns declared when it names an image type, otherwise the
// type sniffed from data.
func ContentType(declared string, data []byte) string {
	if IsImageContentType(declared) {
		return declared
	}
	return http.DetectContentType(data)
}

// IsImageContentType reports whether contentType is an image/* media type.
func IsImageContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// ExceedsAdvisoryLimit reports whether size is above AdvisorySizeLimit.
func ExceedsAdvisoryLimit(size int) bool {
	return size > AdvisorySizeLimit
}
