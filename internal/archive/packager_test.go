package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"regexp"
	"testing"

	"panotiler/internal/cubemap"
	"panotiler/internal/pyramid"
)

// generateTiles runs the pyramid driver over a constant 4x2 source
func generateTiles(t *testing.T) []*pyramid.Tile {
	t.Helper()
	pix := make([]byte, 4*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = 128
		pix[i+1] = 64
		pix[i+2] = 32
		pix[i+3] = 255
	}
	src, err := cubemap.NewSourceImage(pix, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	tiles, err := pyramid.NewDriver(4, nil, nil).Generate(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	return tiles
}

var tilePathPattern = regexp.MustCompile(`^[0-3]/[rludfb]/\d+/\d+\.jpg$`)

func TestPackageArchiveStructure(t *testing.T) {
	tiles := generateTiles(t)

	data, err := NewPackager(100, 85, nil).Package(tiles)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	// Exactly totalTiles + 1 entries: every tile plus config.json
	if got, want := len(zr.File), pyramid.TotalTiles()+1; got != want {
		t.Fatalf("archive has %d entries, want %d", got, want)
	}

	foundManifest := false
	for _, f := range zr.File {
		if f.Name == ManifestName {
			foundManifest = true
			continue
		}
		if !tilePathPattern.MatchString(f.Name) {
			t.Errorf("unexpected entry path %q", f.Name)
		}
	}
	if !foundManifest {
		t.Fatal("config.json missing from archive")
	}
}

func TestPackageManifestContent(t *testing.T) {
	tiles := generateTiles(t)

	data, err := NewPackager(100, 85, nil).Package(tiles)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	rc, err := zr.Open(ManifestName)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}

	manifest, err := DecodeManifest(raw)
	if err != nil {
		t.Fatal(err)
	}

	if manifest.Format != FormatID {
		t.Errorf("format = %q, want %q", manifest.Format, FormatID)
	}
	if len(manifest.TileConfigs) != 4 {
		t.Fatalf("got %d tile configs, want 4", len(manifest.TileConfigs))
	}
	if !manifest.TileConfigs[0].FallbackOnly {
		t.Error("level 0 should be marked fallbackOnly")
	}
	if manifest.TileConfigs[3].Size != 2048 || manifest.TileConfigs[3].TileSize != 512 {
		t.Errorf("level 3 config = %+v, want size 2048 tile 512", manifest.TileConfigs[3])
	}

	wantMapping := map[string]string{
		"r": "right", "l": "left", "u": "up", "d": "down", "f": "front", "b": "back",
	}
	for letter, orientation := range wantMapping {
		if manifest.FaceMapping[letter] != orientation {
			t.Errorf("faceMapping[%q] = %q, want %q", letter, manifest.FaceMapping[letter], orientation)
		}
	}
}

func TestPackagedTilesDecode(t *testing.T) {
	tiles := generateTiles(t)

	data, err := NewPackager(100, 85, nil).Package(tiles)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	// Spot-check one tile: decodes as JPEG and stays close to the constant
	// source color (JPEG round-trips constants within a small tolerance)
	rc, err := zr.Open("3/f/0/0.jpg")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	img, err := jpeg.Decode(rc)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 512 {
		t.Fatalf("tile decoded as %v, want 512x512", img.Bounds())
	}

	r, g, b, _ := img.At(256, 256).RGBA()
	if delta(int(r>>8), 128) > 3 || delta(int(g>>8), 64) > 3 || delta(int(b>>8), 32) > 3 {
		t.Errorf("decoded center = (%d, %d, %d), want ~(128, 64, 32)", r>>8, g>>8, b>>8)
	}
}

func delta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func TestEncodeErrorContext(t *testing.T) {
	err := &EncodeError{Level: 2, Face: "f", Row: 1, Col: 3, Err: io.ErrShortWrite}
	want := "failed to encode tile 2/f/1/3"
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("EncodeError = %q, want prefix %q", got, want)
	}
}
