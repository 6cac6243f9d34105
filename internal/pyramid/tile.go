package pyramid

import (
	"fmt"

	"panotiler/internal/cubemap"
)

// Tile is a rectangular crop of a rasterized cube face, keyed uniquely by
// (level, face, row, col). Trailing tiles may be smaller than the level's
// tile size. Immutable once produced.
type Tile struct {
	Level  int
	Face   cubemap.Face
	Row    int
	Col    int
	Width  int
	Height int
	Pix    []byte // row-major RGBA8, Width*Height*4 bytes
}

// Path returns the tile's archive path, {level}/{faceLetter}/{row}/{col}.jpg
func (t *Tile) Path() string {
	return fmt.Sprintf("%d/%s/%d/%d.jpg", t.Level, t.Face.Letter(), t.Row, t.Col)
}

// SliceFace cuts a rasterized face buffer into its tile grid in row-major
// order. Each tile gets a private copy of its region; trailing tiles are
// emitted at their true (short) size rather than padded. This is a pure
// crop copy, no resampling.
func SliceFace(facePix []byte, spec LevelSpec, face cubemap.Face) ([]*Tile, error) {
	if len(facePix) < spec.FaceSize*spec.FaceSize*4 {
		return nil, fmt.Errorf("face buffer too small: %d bytes for size %d", len(facePix), spec.FaceSize)
	}

	side := spec.TilesPerSide()
	tiles := make([]*Tile, 0, side*side)

	for row := 0; row < side; row++ {
		yOff := row * spec.TileSize
		height := spec.TileSize
		if yOff+height > spec.FaceSize {
			height = spec.FaceSize - yOff
		}

		for col := 0; col < side; col++ {
			xOff := col * spec.TileSize
			width := spec.TileSize
			if xOff+width > spec.FaceSize {
				width = spec.FaceSize - xOff
			}

			pix := make([]byte, width*height*4)
			for y := 0; y < height; y++ {
				srcOff := ((yOff+y)*spec.FaceSize + xOff) * 4
				copy(pix[y*width*4:(y+1)*width*4], facePix[srcOff:srcOff+width*4])
			}

			tiles = append(tiles, &Tile{
				Level:  spec.Level,
				Face:   face,
				Row:    row,
				Col:    col,
				Width:  width,
				Height: height,
				Pix:    pix,
			})
		}
	}

	return tiles, nil
}
