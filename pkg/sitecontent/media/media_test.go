package media

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noiseImage(width, height int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func gradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressMeetsBudgetOrFloor(t *testing.T) {
	data := encodePNG(t, noiseImage(2400, 1000, 1))
	opts := DefaultOptions()

	res, err := Compress(data, opts)
	require.NoError(t, err)

	assert.True(t, res.WithinBudget(opts.TargetBytes) || res.Quality == opts.MinQuality,
		"size %d quality %d", len(res.Data), res.Quality)
	assert.LessOrEqual(t, res.Width, opts.MaxDimension)
	assert.LessOrEqual(t, res.Height, opts.MaxDimension)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 800, res.Height)
	assert.Equal(t, OutputMimeType, res.MimeType)
	assert.Equal(t, "png", res.SourceFormat)

	_, err = jpeg.Decode(bytes.NewReader(res.Data))
	assert.NoError(t, err)
}

func TestCompressStopsAtFloor(t *testing.T) {
	data := encodePNG(t, noiseImage(400, 400, 2))
	res, err := Compress(data, Options{TargetBytes: 10, MaxDimension: 400})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Quality)
	assert.Greater(t, len(res.Data), 10)
}

func TestCompressKeepsStartQualityWhenSmall(t *testing.T) {
	data := encodePNG(t, gradientImage(200, 100))
	res, err := Compress(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 90, res.Quality)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 100, res.Height)
}

func TestCompressPreservesAspectRatioPortrait(t *testing.T) {
	data := encodePNG(t, gradientImage(300, 900))
	res, err := Compress(data, Options{MaxDimension: 300})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 300, res.Height)
}

func TestCompressDoesNotMutateInput(t *testing.T) {
	data := encodePNG(t, gradientImage(120, 80))
	orig := append([]byte(nil), data...)
	_, err := Compress(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, orig, data)
}

func TestCompressIsRepeatable(t *testing.T) {
	data := encodePNG(t, gradientImage(640, 480))
	first, err := Compress(data, DefaultOptions())
	require.NoError(t, err)
	second, err := Compress(first.Data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
}

func TestCompressRejectsBadInput(t *testing.T) {
	_, err := Compress(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Compress([]byte{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Compress([]byte("definitely not an image"), DefaultOptions())
	assert.ErrorIs(t, err, ErrCorruptImage)

	data := encodePNG(t, gradientImage(50, 50))
	_, err = Compress(data[:len(data)/2], DefaultOptions())
	assert.ErrorIs(t, err, ErrCorruptImage)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching
// its pixel data.
func withDeclaredSize(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCompressRejectsOversizedDimensions(t *testing.T) {
	huge := withDeclaredSize(t, encodePNG(t, gradientImage(8, 8)), 12000, 12000)
	cfg, err := png.DecodeConfig(bytes.NewReader(huge))
	require.NoError(t, err)
	require.Equal(t, 12000, cfg.Width)

	_, err = Compress(huge, DefaultOptions())
	assert.ErrorIs(t, err, ErrImageTooLarge)

	opts := DefaultOptions()
	opts.MaxPixels = 50 * 50
	_, err = Compress(encodePNG(t, gradientImage(60, 60)), opts)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	res, err := Compress(encodePNG(t, gradientImage(50, 50)), opts)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Width)
}

func TestCompressionRatio(t *testing.T) {
	assert.InDelta(t, 75.0, CompressionRatio(1000, 250), 0.001)
	assert.Equal(t, 0.0, CompressionRatio(0, 10))
}
