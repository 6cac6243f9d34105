package archive

import (
	"fmt"

	"github.com/goccy/go-json"

	"panotiler/internal/cubemap"
	"panotiler/internal/pyramid"
)

// ManifestName is the manifest's path inside the archive
const ManifestName = "config.json"

// FormatID identifies the tile layout for consuming viewers
const FormatID = "cubemap-multires"

// TileStructure documents the tile path template and face-letter legend
const TileStructure = "{level}/{faceLetter}/{row}/{col}.jpg (faces: r=right, l=left, u=up, d=down, f=front, b=back)"

// TileConfig is one entry of the ordered level table in the manifest
type TileConfig struct {
	TileSize     int  `json:"tileSize"`
	Size         int  `json:"size"`
	FallbackOnly bool `json:"fallbackOnly,omitempty"`
}

// Manifest is the config.json document placed at the archive root
type Manifest struct {
	Format        string            `json:"format"`
	TileStructure string            `json:"tileStructure"`
	FaceMapping   map[string]string `json:"faceMapping"`
	TileConfigs   []TileConfig      `json:"tileConfigs"`
	Description   string            `json:"description"`
}

// NewManifest builds the manifest for the fixed level table
func NewManifest() *Manifest {
	faceMapping := make(map[string]string, cubemap.FaceCount)
	for _, face := range cubemap.Faces() {
		faceMapping[face.Letter()] = face.Orientation()
	}

	levels := pyramid.Levels()
	configs := make([]TileConfig, 0, len(levels))
	for _, spec := range levels {
		configs = append(configs, TileConfig{
			TileSize:     spec.TileSize,
			Size:         spec.FaceSize,
			FallbackOnly: spec.FallbackOnly,
		})
	}

	return &Manifest{
		Format:        FormatID,
		TileStructure: TileStructure,
		FaceMapping:   faceMapping,
		TileConfigs:   configs,
		Description:   fmt.Sprintf("Multi-resolution cubemap tile pyramid, %d levels, generated from an equirectangular panorama", len(levels)),
	}
}

// Encode serializes the manifest as indented JSON
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a config.json document
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}
