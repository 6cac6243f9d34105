package cubemap

import (
	"fmt"
	"math"
)

// SourceImage is an immutable RGBA8 view of the decoded panorama. The pixel
// buffer is row-major with 4 bytes per pixel and is never mutated during a
// conversion.
type SourceImage struct {
	Pix    []byte
	Width  int
	Height int
}

// NewSourceImage validates dimensions and wraps a pixel buffer
func NewSourceImage(pix []byte, width, height int) (*SourceImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid source dimensions %dx%d", width, height)
	}
	if len(pix) < width*height*4 {
		return nil, fmt.Errorf("pixel buffer too small: %d bytes for %dx%d", len(pix), width, height)
	}
	return &SourceImage{Pix: pix, Width: width, Height: height}, nil
}

// BilinearSample interpolates the RGB value at normalized (u, v). Coordinates
// are clamped into [0,1] and neighbor lookups clamp to the image edge rather
// than wrapping, so the longitude seam is not blended across. Each channel is
// blended independently and rounded to the nearest integer.
func (s *SourceImage) BilinearSample(u, v float64) (r, g, b uint8) {
	u = clamp01(u)
	v = clamp01(v)

	x := u * float64(s.Width-1)
	y := v * float64(s.Height-1)

	x1 := int(math.Floor(x))
	y1 := int(math.Floor(y))
	x2 := x1 + 1
	y2 := y1 + 1
	if x2 > s.Width-1 {
		x2 = s.Width - 1
	}
	if y2 > s.Height-1 {
		y2 = s.Height - 1
	}

	fx := x - float64(x1)
	fy := y - float64(y1)

	p11 := s.pixelOffset(x1, y1)
	p21 := s.pixelOffset(x2, y1)
	p12 := s.pixelOffset(x1, y2)
	p22 := s.pixelOffset(x2, y2)

	r = lerpChannel(s.Pix[p11+0], s.Pix[p21+0], s.Pix[p12+0], s.Pix[p22+0], fx, fy)
	g = lerpChannel(s.Pix[p11+1], s.Pix[p21+1], s.Pix[p12+1], s.Pix[p22+1], fx, fy)
	b = lerpChannel(s.Pix[p11+2], s.Pix[p21+2], s.Pix[p12+2], s.Pix[p22+2], fx, fy)
	return r, g, b
}

// pixelOffset returns the byte offset of pixel (x, y)
func (s *SourceImage) pixelOffset(x, y int) int {
	return (y*s.Width + x) * 4
}

// lerpChannel bilinearly blends four corner samples of one channel
func lerpChannel(c11, c21, c12, c22 uint8, fx, fy float64) uint8 {
	top := float64(c11) + (float64(c21)-float64(c11))*fx
	bottom := float64(c12) + (float64(c22)-float64(c12))*fx
	value := math.Round(top + (bottom-top)*fy)
	if value < 0 {
		value = 0
	}
	if value > 255 {
		value = 255
	}
	return uint8(value)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
