package cubemap

import "testing"

func TestRenderFaceConstantSource(t *testing.T) {
	// A flat single-color panorama rasterizes to that color on every face
	src := buildSource(t, 4, 2, [][3]uint8{
		{128, 64, 32}, {128, 64, 32}, {128, 64, 32}, {128, 64, 32},
		{128, 64, 32}, {128, 64, 32}, {128, 64, 32}, {128, 64, 32},
	})

	for _, face := range Faces() {
		pix, err := RenderFace(src, face, 16)
		if err != nil {
			t.Fatalf("RenderFace(%s): %v", face, err)
		}
		if len(pix) != 16*16*4 {
			t.Fatalf("face %s buffer length %d, want %d", face, len(pix), 16*16*4)
		}
		for i := 0; i < len(pix); i += 4 {
			if pix[i] != 128 || pix[i+1] != 64 || pix[i+2] != 32 || pix[i+3] != 255 {
				t.Fatalf("face %s pixel %d = (%d, %d, %d, %d), want (128, 64, 32, 255)",
					face, i/4, pix[i], pix[i+1], pix[i+2], pix[i+3])
			}
		}
	}
}

func TestRenderFaceInvalidSize(t *testing.T) {
	src := buildSource(t, 2, 1, [][3]uint8{{0, 0, 0}, {0, 0, 0}})
	if _, err := RenderFace(src, FaceFront, 0); err == nil {
		t.Fatal("expected error for zero face size")
	}
}

func TestRenderFaceUpDownDiffer(t *testing.T) {
	// Top half white, bottom half black: the up face must be bright and the
	// down face dark.
	rgb := make([][3]uint8, 8)
	for i := range rgb {
		if i < 4 {
			rgb[i] = [3]uint8{255, 255, 255}
		}
	}
	src := buildSource(t, 4, 2, rgb)

	up, err := RenderFace(src, FaceUp, 8)
	if err != nil {
		t.Fatal(err)
	}
	down, err := RenderFace(src, FaceDown, 8)
	if err != nil {
		t.Fatal(err)
	}

	center := (4*8 + 4) * 4
	if up[center] <= down[center] {
		t.Errorf("up center %d should be brighter than down center %d", up[center], down[center])
	}
}
