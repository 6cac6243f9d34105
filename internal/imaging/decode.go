package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"panotiler/internal/cubemap"
)

// SourceLoadError reports a panorama that could not be decoded
type SourceLoadError struct {
	Err error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("failed to load source image: %v", e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// Decode decodes an encoded panorama into an RGBA source image. Any format
// registered with image.Decode is accepted (JPEG, PNG, GIF plus TIFF, WebP
// and BMP via x/image).
func Decode(data []byte) (*cubemap.SourceImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &SourceLoadError{Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, &SourceLoadError{Err: fmt.Errorf("empty %s image (%dx%d)", format, width, height)}
	}

	// Normalize to a zero-origin RGBA buffer regardless of source color model
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)

	src, err := cubemap.NewSourceImage(rgba.Pix, width, height)
	if err != nil {
		return nil, &SourceLoadError{Err: err}
	}
	return src, nil
}
