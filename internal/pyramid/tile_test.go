package pyramid

import (
	"testing"

	"panotiler/internal/cubemap"
)

// gradientFace builds a face buffer whose red channel encodes x and green
// channel encodes y, so tile copies can be traced back to their origin.
func gradientFace(faceSize int) []byte {
	pix := make([]byte, faceSize*faceSize*4)
	for y := 0; y < faceSize; y++ {
		for x := 0; x < faceSize; x++ {
			off := (y*faceSize + x) * 4
			pix[off+0] = uint8(x % 256)
			pix[off+1] = uint8(y % 256)
			pix[off+3] = 255
		}
	}
	return pix
}

func TestSliceFaceExactGrid(t *testing.T) {
	spec := LevelSpec{Level: 2, FaceSize: 1024, TileSize: 512}
	tiles, err := SliceFace(gradientFace(1024), spec, cubemap.FaceFront)
	if err != nil {
		t.Fatal(err)
	}

	if len(tiles) != 4 {
		t.Fatalf("got %d tiles, want 4", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Width != 512 || tile.Height != 512 {
			t.Errorf("tile (%d,%d) size %dx%d, want 512x512", tile.Row, tile.Col, tile.Width, tile.Height)
		}
		if tile.Level != 2 || tile.Face != cubemap.FaceFront {
			t.Errorf("tile keyed (%d, %s), want (2, front)", tile.Level, tile.Face)
		}
	}
}

func TestSliceFaceTrailingTiles(t *testing.T) {
	// 300px face with 128px tiles: grid is 3x3 with 44px trailing edges
	spec := LevelSpec{Level: 1, FaceSize: 300, TileSize: 128}
	tiles, err := SliceFace(gradientFace(300), spec, cubemap.FaceUp)
	if err != nil {
		t.Fatal(err)
	}

	if len(tiles) != 9 {
		t.Fatalf("got %d tiles, want 9", len(tiles))
	}
	for _, tile := range tiles {
		wantW, wantH := 128, 128
		if tile.Col == 2 {
			wantW = 300 - 2*128
		}
		if tile.Row == 2 {
			wantH = 300 - 2*128
		}
		if tile.Width != wantW || tile.Height != wantH {
			t.Errorf("tile (%d,%d) size %dx%d, want %dx%d", tile.Row, tile.Col, tile.Width, tile.Height, wantW, wantH)
		}
		if len(tile.Pix) != tile.Width*tile.Height*4 {
			t.Errorf("tile (%d,%d) buffer %d bytes, want %d", tile.Row, tile.Col, len(tile.Pix), tile.Width*tile.Height*4)
		}
	}
}

func TestSliceFaceCoversWithoutOverlap(t *testing.T) {
	// Every face pixel must be copied into exactly one tile
	spec := LevelSpec{Level: 0, FaceSize: 70, TileSize: 32}
	facePix := gradientFace(70)
	tiles, err := SliceFace(facePix, spec, cubemap.FaceLeft)
	if err != nil {
		t.Fatal(err)
	}

	covered := make([]int, 70*70)
	for _, tile := range tiles {
		for y := 0; y < tile.Height; y++ {
			for x := 0; x < tile.Width; x++ {
				fx := tile.Col*spec.TileSize + x
				fy := tile.Row*spec.TileSize + y
				covered[fy*70+fx]++

				// Pixel content must match the face buffer
				tileOff := (y*tile.Width + x) * 4
				faceOff := (fy*70 + fx) * 4
				if tile.Pix[tileOff] != facePix[faceOff] || tile.Pix[tileOff+1] != facePix[faceOff+1] {
					t.Fatalf("tile (%d,%d) pixel (%d,%d) does not match face pixel (%d,%d)",
						tile.Row, tile.Col, x, y, fx, fy)
				}
			}
		}
	}

	for i, count := range covered {
		if count != 1 {
			t.Fatalf("face pixel %d covered %d times, want exactly once", i, count)
		}
	}
}

func TestSliceFaceRejectsShortBuffer(t *testing.T) {
	spec := LevelSpec{Level: 0, FaceSize: 64, TileSize: 32}
	if _, err := SliceFace(make([]byte, 10), spec, cubemap.FaceFront); err == nil {
		t.Fatal("expected error for short face buffer")
	}
}

func TestTilePath(t *testing.T) {
	tile := &Tile{Level: 2, Face: cubemap.FaceBack, Row: 1, Col: 3}
	if got := tile.Path(); got != "2/b/1/3.jpg" {
		t.Errorf("Path = %q, want %q", got, "2/b/1/3.jpg")
	}
}
