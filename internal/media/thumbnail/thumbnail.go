// Package thumbnail turns uploaded originals into small preview images.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/tagshelf/tagshelf/internal/errors"
	"github.com/tagshelf/tagshelf/internal/metrics"
)

const (
	// DefaultSize is the bounding box edge thumbnails are fitted into.
	DefaultSize = 320

	// MaxPixels bounds the decoded size of an original.
	MaxPixels = 40_000_000

	jpegQuality = 80
)

// Result is a generated thumbnail.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	BlurHash    string
}

// Thumbnailer generates a thumbnail from original image bytes.
type Thumbnailer interface {
	Generate(ctx context.Context, original []byte) (*Result, error)
}

// Imaging generates JPEG thumbnails with disintegration/imaging.
type Imaging struct {
	size   int
	logger *slog.Logger
}

// New creates an Imaging thumbnailer fitting into size x size.
// A non-positive size uses DefaultSize.
func New(size int, logger *slog.Logger) *Imaging {
	if size <= 0 {
		size = DefaultSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Imaging{size: size, logger: logger}
}

// Generate decodes original (JPEG, PNG, GIF or WebP), applies EXIF
// orientation, fits it into the bounding box and encodes it as JPEG.
// Images smaller than the box are not upscaled. A BlurHash placeholder is
// computed from the result.
func (t *Imaging) Generate(ctx context.Context, original []byte) (*Result, error) {
	start := time.Now()
	res, err := t.generate(ctx, original)
	metrics.ThumbnailDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailsTotal.WithLabelValues("error").Inc()
		t.logger.Debug("thumbnail generation failed", "size", len(original), "error", err)
		return nil, err
	}
	metrics.ThumbnailsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (t *Imaging) generate(ctx context.Context, original []byte) (*Result, error) {
	if len(original) == 0 {
		return nil, domainerrors.Validation("image is empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(original))
	if err != nil {
		return nil, domainerrors.Validationf("unsupported image: %v", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, domainerrors.Validationf("image is %dx%d, larger than %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domainerrors.Validationf("decode %s image: %v", format, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, t.size, t.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "encode thumbnail")
	}

	hash, err := blurHash(thumb)
	if err != nil {
		// The placeholder is optional.
		t.logger.Warn("blurhash failed", "error", err)
	}

	bounds := thumb.Bounds()
	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		BlurHash:    hash,
	}, nil
}

// Func adapts a function to Thumbnailer.
type Func func(ctx context.Context, original []byte) (*Result, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, original []byte) (*Result, error) {
	return f(ctx, original)
}

var _ Thumbnailer = (*Imaging)(nil)

// String describes the thumbnailer for logs.
func (t *Imaging) String() string {
	return fmt.Sprintf("imaging(%dx%d, jpeg q%d)", t.size, t.size, jpegQuality)
}
