package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, width, height int, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: alpha})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height, format
}

func TestDeriveResizesWideJPEG(t *testing.T) {
	th := NewThumbnailer(480)

	payload := th.Derive(jpegBytes(t, 2000, 1000), "image/jpeg")
	require.NotNil(t, payload)
	assert.Equal(t, "image/jpeg", payload.ContentType)

	w, h, format := decodeSize(t, payload.Bytes)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 480, w)
	assert.Equal(t, 240, h)
}

func TestDeriveRoundsTargetHeight(t *testing.T) {
	th := NewThumbnailer(480)

	// 1000x333 scaled to width 480 gives 159.84, which rounds to 160.
	payload := th.Derive(jpegBytes(t, 1000, 333), "image/jpeg")
	require.NotNil(t, payload)

	_, h, _ := decodeSize(t, payload.Bytes)
	assert.Equal(t, 160, h)
}

func TestDeriveSkipsNarrowImages(t *testing.T) {
	th := NewThumbnailer(480)

	assert.Nil(t, th.Derive(jpegBytes(t, 480, 600), "image/jpeg"))
	assert.Nil(t, th.Derive(jpegBytes(t, 300, 300), "image/jpeg"))
}

func TestDeriveKeepsPNGForPNGSource(t *testing.T) {
	th := NewThumbnailer(480)

	payload := th.Derive(pngBytes(t, 900, 600, 255), "image/png")
	require.NotNil(t, payload)
	assert.Equal(t, "image/png", payload.ContentType)

	w, _, format := decodeSize(t, payload.Bytes)
	assert.Equal(t, "png", format)
	assert.Equal(t, 480, w)
}

func TestDeriveKeepsPNGForTransparentSource(t *testing.T) {
	th := NewThumbnailer(480)

	// Content type lies, but the pixels carry transparency.
	payload := th.Derive(pngBytes(t, 900, 600, 128), "image/webp")
	require.NotNil(t, payload)
	assert.Equal(t, "image/png", payload.ContentType)
}

func TestDeriveRejectsGarbage(t *testing.T) {
	th := NewThumbnailer(480)

	assert.Nil(t, th.Derive(nil, "image/jpeg"))
	assert.Nil(t, th.Derive([]byte{}, "image/jpeg"))
	assert.Nil(t, th.Derive([]byte("definitely not an image"), "image/jpeg"))
}

func TestNewThumbnailerDefaultsWidth(t *testing.T) {
	assert.Equal(t, defaultThumbnailMaxWidth, NewThumbnailer(0).MaxWidth())
	assert.Equal(t, defaultThumbnailMaxWidth, NewThumbnailer(-5).MaxWidth())
	assert.Equal(t, 320, NewThumbnailer(320).MaxWidth())
}
