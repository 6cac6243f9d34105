package pyramid

// LevelSpec describes one resolution tier of the cubemap pyramid
type LevelSpec struct {
	Level        int
	FaceSize     int
	TileSize     int
	FallbackOnly bool
}

// Levels returns the fixed ordered level table. Level 0 is a single-tile
// fallback face; the face size doubles per level while the tile size stays
// at 512 from level 1 on.
func Levels() []LevelSpec {
	return []LevelSpec{
		{Level: 0, FaceSize: 256, TileSize: 256, FallbackOnly: true},
		{Level: 1, FaceSize: 512, TileSize: 512},
		{Level: 2, FaceSize: 1024, TileSize: 512},
		{Level: 3, FaceSize: 2048, TileSize: 512},
	}
}

// TilesPerSide returns the tile grid dimension for a level. Face sizes are
// not required to be multiples of the tile size; a partial trailing row and
// column still count as tiles.
func (s LevelSpec) TilesPerSide() int {
	return (s.FaceSize + s.TileSize - 1) / s.TileSize
}

// MaxLevel returns the highest level index in the table
func MaxLevel() int {
	levels := Levels()
	return levels[len(levels)-1].Level
}

// TotalTiles returns the tile count across every level and all six faces
func TotalTiles() int {
	total := 0
	for _, spec := range Levels() {
		side := spec.TilesPerSide()
		total += 6 * side * side
	}
	return total
}
