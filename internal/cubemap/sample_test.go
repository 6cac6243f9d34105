package cubemap

import "testing"

// buildSource creates a source image from per-pixel RGB triples, row-major
func buildSource(t *testing.T, width, height int, rgb [][3]uint8) *SourceImage {
	t.Helper()
	if len(rgb) != width*height {
		t.Fatalf("need %d pixels, got %d", width*height, len(rgb))
	}
	pix := make([]byte, width*height*4)
	for i, c := range rgb {
		pix[i*4+0] = c[0]
		pix[i*4+1] = c[1]
		pix[i*4+2] = c[2]
		pix[i*4+3] = 255
	}
	src, err := NewSourceImage(pix, width, height)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestNewSourceImageValidation(t *testing.T) {
	if _, err := NewSourceImage(make([]byte, 16), 2, 2); err != nil {
		t.Errorf("valid 2x2 buffer rejected: %v", err)
	}
	if _, err := NewSourceImage(nil, 0, 2); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewSourceImage(make([]byte, 8), 2, 2); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestBilinearSampleCorners(t *testing.T) {
	// 2x2 image with distinct corner colors
	src := buildSource(t, 2, 2, [][3]uint8{
		{255, 0, 0}, {0, 255, 0},
		{0, 0, 255}, {255, 255, 255},
	})

	tests := []struct {
		name    string
		u, v    float64
		r, g, b uint8
	}{
		{"top-left corner is exact", 0, 0, 255, 0, 0},
		{"bottom-right corner is exact", 1, 1, 255, 255, 255},
		{"u clamped below", -0.5, 0, 255, 0, 0},
		{"v clamped above", 1, 2.0, 255, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := src.BilinearSample(tt.u, tt.v)
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("sample(%g, %g) = (%d, %d, %d), want (%d, %d, %d)",
					tt.u, tt.v, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestBilinearSampleMidpoint(t *testing.T) {
	// Midpoint of a 2x1 gradient blends both pixels equally
	src := buildSource(t, 2, 1, [][3]uint8{
		{0, 0, 0}, {100, 200, 50},
	})

	r, g, b := src.BilinearSample(0.5, 0)
	if r != 50 || g != 100 || b != 25 {
		t.Errorf("midpoint sample = (%d, %d, %d), want (50, 100, 25)", r, g, b)
	}
}

func TestBilinearSampleConstantField(t *testing.T) {
	// Interpolating a constant field is invariant everywhere
	src := buildSource(t, 4, 2, [][3]uint8{
		{128, 64, 32}, {128, 64, 32}, {128, 64, 32}, {128, 64, 32},
		{128, 64, 32}, {128, 64, 32}, {128, 64, 32}, {128, 64, 32},
	})

	for _, uv := range [][2]float64{{0, 0}, {0.33, 0.77}, {0.5, 0.5}, {1, 1}, {0.999, 0.001}} {
		r, g, b := src.BilinearSample(uv[0], uv[1])
		if r != 128 || g != 64 || b != 32 {
			t.Errorf("sample(%g, %g) = (%d, %d, %d), want (128, 64, 32)", uv[0], uv[1], r, g, b)
		}
	}
}

func TestBilinearSampleNoSeamWrap(t *testing.T) {
	// u=1 clamps to the right edge pixel; it must not blend with column 0
	src := buildSource(t, 3, 1, [][3]uint8{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
	})

	r, g, b := src.BilinearSample(1, 0)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("seam sample = (%d, %d, %d), want right edge (0, 0, 255)", r, g, b)
	}
}
