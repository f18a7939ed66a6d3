package media

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	// Register webp decoding so webp sources are thumbnail-eligible.
	// jpeg/png/gif/tiff/bmp come registered through imaging.
	_ "golang.org/x/image/webp"
)

var whiteFill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

const defaultThumbnailMaxWidth = 480

const thumbnailJPEGQuality = 85

// ThumbnailPayload is a derived thumbnail ready to be stored.
type ThumbnailPayload struct {
	Bytes       []byte
	ContentType string
}

// Thumbnailer derives reduced-width preview variants from source images.
type Thumbnailer struct {
	maxWidth int
}

// NewThumbnailer creates a Thumbnailer with the given maximum preview
// width. Non-positive widths fall back to the default.
func NewThumbnailer(maxWidth int) *Thumbnailer {
	if maxWidth <= 0 {
		maxWidth = defaultThumbnailMaxWidth
	}
	return &Thumbnailer{maxWidth: maxWidth}
}

// MaxWidth returns the configured maximum preview width.
func (t *Thumbnailer) MaxWidth() int {
	return t.maxWidth
}

// Derive produces a thumbnail payload for the source image, or nil when the
// source is not eligible: empty, undecodable, degenerate, or no wider than
// the maximum preview width. Decode and encode failures also yield nil;
// a broken source image must never abort a batch operation.
func (t *Thumbnailer) Derive(sourceBytes []byte, sourceContentType string) *ThumbnailPayload {
	if len(sourceBytes) == 0 {
		return nil
	}

	src, err := imaging.Decode(bytes.NewReader(sourceBytes))
	if err != nil {
		return nil
	}
	bounds := src.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()
	if srcWidth <= 0 || srcHeight <= 0 {
		return nil
	}
	if srcWidth <= t.maxWidth {
		return nil
	}

	targetWidth := t.maxWidth
	targetHeight := int(math.Round(float64(srcHeight) * float64(targetWidth) / float64(srcWidth)))
	if targetHeight < 1 {
		targetHeight = 1
	}

	resized := imaging.Resize(src, targetWidth, targetHeight, imaging.Lanczos)

	// Lossless output when the source is png or actually carries
	// transparency; lossy jpeg over an opaque white fill otherwise.
	usePNG := sourceContentType == "image/png" || hasTransparency(src)

	buf := new(bytes.Buffer)
	if usePNG {
		if err := imaging.Encode(buf, resized, imaging.PNG); err != nil {
			return nil
		}
		return &ThumbnailPayload{Bytes: buf.Bytes(), ContentType: "image/png"}
	}

	flattened := imaging.Overlay(imaging.New(targetWidth, targetHeight, whiteFill), resized, image.Pt(0, 0), 1.0)
	if err := imaging.Encode(buf, flattened, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil
	}
	return &ThumbnailPayload{Bytes: buf.Bytes(), ContentType: "image/jpeg"}
}

// hasTransparency reports whether the image has any non-opaque pixel.
func hasTransparency(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}
	return false
}
