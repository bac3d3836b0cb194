// Package media recompresses uploaded images to fit a byte budget.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

var (
	// ErrEmptyImage indicates a zero-byte payload
	ErrEmptyImage = errors.New("image is empty")

	// ErrCorruptImage indicates a payload that could not be decoded as an image
	ErrCorruptImage = errors.New("image could not be decoded")

	// ErrImageTooLarge indicates declared dimensions above Options.MaxPixels
	ErrImageTooLarge = errors.New("image dimensions are too large")
)

// OutputMimeType is the MIME type of every compressed image.
const OutputMimeType = "image/jpeg"

// Options controls recompression.
type Options struct {
	TargetBytes  int
	MaxDimension int
	StartQuality int
	QualityStep  int
	MinQuality   int

	// MaxPixels caps width*height as declared in the image header. Larger
	// images are rejected before any pixel data is decoded.
	MaxPixels int
}

// DefaultMaxPixels allows roughly a 40 megapixel photo.
const DefaultMaxPixels = 40_000_000

// DefaultOptions targets 100 KiB and 1920 px.
func DefaultOptions() Options {
	return Options{
		TargetBytes:  100 * 1024,
		MaxDimension: 1920,
		StartQuality: 90,
		QualityStep:  10,
		MinQuality:   10,
		MaxPixels:    DefaultMaxPixels,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetBytes <= 0 {
		o.TargetBytes = d.TargetBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = d.MaxDimension
	}
	if o.StartQuality <= 0 || o.StartQuality > 100 {
		o.StartQuality = d.StartQuality
	}
	if o.QualityStep <= 0 {
		o.QualityStep = d.QualityStep
	}
	if o.MinQuality <= 0 || o.MinQuality > o.StartQuality {
		o.MinQuality = d.MinQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = d.MaxPixels
	}
	return o
}

// Result is a recompressed image.
type Result struct {
	Data         []byte
	MimeType     string
	Width        int
	Height       int
	Quality      int
	OriginalSize int
	SourceFormat string
}

// WithinBudget reports whether the output fits the target it was built for.
func (r *Result) WithinBudget(targetBytes int) bool {
	return len(r.Data) <= targetBytes
}

// Compress decodes data, downscales it so neither side exceeds
// MaxDimension, then re-encodes it as JPEG from StartQuality down by
// QualityStep until it fits TargetBytes. When MinQuality is reached the last
// encoding is returned even if it is still over budget. data is not modified.
func Compress(data []byte, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, opts.MaxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptImage)
	}

	scaled := resize.Thumbnail(uint(opts.MaxDimension), uint(opts.MaxDimension), img, resize.Lanczos3)
	flat := flatten(scaled)

	var (
		buf     bytes.Buffer
		quality = opts.StartQuality
	)
	for {
		buf.Reset()
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
		}
		if buf.Len() <= opts.TargetBytes || quality-opts.QualityStep < opts.MinQuality {
			break
		}
		quality -= opts.QualityStep
	}

	out := flat.Bounds()
	return &Result{
		Data:         append([]byte(nil), buf.Bytes()...),
		MimeType:     OutputMimeType,
		Width:        out.Dx(),
		Height:       out.Dy(),
		Quality:      quality,
		OriginalSize: len(data),
		SourceFormat: format,
	}, nil
}

// flatten draws img onto an opaque white canvas; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	return canvas
}

// CompressionRatio returns the percentage saved going from original to
// compressed bytes.
func CompressionRatio(original, compressed int) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}
