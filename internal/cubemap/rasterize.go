package cubemap

import "fmt"

// RenderFace rasterizes one cube face at the given edge size, sampling the
// full-resolution source for every destination pixel. The returned buffer is
// row-major RGBA8 of length faceSize*faceSize*4 with alpha fixed at 255.
//
// Pixel centers sit at (x+0.5)/faceSize so the face is sampled symmetrically.
// This is a pure function of (src, face, faceSize); tiling happens elsewhere.
func RenderFace(src *SourceImage, face Face, faceSize int) ([]byte, error) {
	if faceSize <= 0 {
		return nil, fmt.Errorf("invalid face size %d", faceSize)
	}

	out := make([]byte, faceSize*faceSize*4)
	invSize := 1.0 / float64(faceSize)

	for y := 0; y < faceSize; y++ {
		v := (float64(y) + 0.5) * invSize
		for x := 0; x < faceSize; x++ {
			u := (float64(x) + 0.5) * invSize

			dx, dy, dz := FaceDirection(face, u, v)
			su, sv, err := EquirectUV(dx, dy, dz)
			if err != nil {
				return nil, fmt.Errorf("face %s pixel (%d,%d): %w", face, x, y, err)
			}

			r, g, b := src.BilinearSample(su, sv)

			off := (y*faceSize + x) * 4
			out[off+0] = r
			out[off+1] = g
			out[off+2] = b
			out[off+3] = 255
		}
	}

	return out, nil
}
