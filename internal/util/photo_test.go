package util

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreparePhotoDownscales(t *testing.T) {
	t.Parallel()

	out, err := PreparePhoto(bytes.NewReader(encodePNG(t, 1024, 256)), 512)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 128, cfg.Height)
}

func TestPreparePhotoDoesNotEnlarge(t *testing.T) {
	t.Parallel()

	out, err := PreparePhoto(bytes.NewReader(encodePNG(t, 40, 30)), 0)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestPreparePhotoRejectsNonImages(t *testing.T) {
	t.Parallel()

	_, err := PreparePhoto(strings.NewReader("definitely not a picture"), 512)
	require.ErrorIs(t, err, ErrUnsupportedPhoto)
}
