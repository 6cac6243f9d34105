package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log"

	"panotiler/internal/pyramid"
)

const (
	// JPEGQuality is the primary tile encoding quality
	JPEGQuality = 100

	// FallbackJPEGQuality is the single-retry quality if top-quality encoding fails
	FallbackJPEGQuality = 85
)

// EncodeError reports a tile that failed JPEG encoding at both qualities
type EncodeError struct {
	Level, Row, Col int
	Face            string
	Err             error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode tile %d/%s/%d/%d: %v", e.Level, e.Face, e.Row, e.Col, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Packager serializes a tile set plus its manifest into a single in-memory
// ZIP archive. Archive writing is single-threaded; the zip writer is not
// safe for concurrent use.
type Packager struct {
	quality         int
	fallbackQuality int
	logCallback     func(string)
}

// NewPackager creates a packager with the given JPEG qualities
func NewPackager(quality, fallbackQuality int, logCallback func(string)) *Packager {
	if quality <= 0 || quality > 100 {
		quality = JPEGQuality
	}
	if fallbackQuality <= 0 || fallbackQuality > 100 {
		fallbackQuality = FallbackJPEGQuality
	}
	return &Packager{
		quality:         quality,
		fallbackQuality: fallbackQuality,
		logCallback:     logCallback,
	}
}

// emitLog emits a log message if callback is set
func (p *Packager) emitLog(message string) {
	if p.logCallback != nil {
		p.logCallback(message)
	}
}

// Package writes config.json and every tile into a ZIP archive and returns
// the archive bytes. Any tile failure aborts packaging; no archive with
// silently missing tiles is ever produced.
func (p *Packager) Package(tiles []*pyramid.Tile) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	manifest, err := NewManifest().Encode()
	if err != nil {
		return nil, fmt.Errorf("packaging failed: %w", err)
	}

	w, err := zw.Create(ManifestName)
	if err != nil {
		return nil, fmt.Errorf("packaging failed: %w", err)
	}
	if _, err := w.Write(manifest); err != nil {
		return nil, fmt.Errorf("packaging failed: %w", err)
	}

	for _, tile := range tiles {
		data, err := p.encodeTile(tile)
		if err != nil {
			return nil, err
		}

		w, err := zw.Create(tile.Path())
		if err != nil {
			return nil, fmt.Errorf("packaging failed at %s: %w", tile.Path(), err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("packaging failed at %s: %w", tile.Path(), err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("packaging failed: %w", err)
	}

	p.emitLog(fmt.Sprintf("Packaged %d tiles (%d bytes)", len(tiles), buf.Len()))
	return buf.Bytes(), nil
}

// encodeTile JPEG-encodes a single tile, retrying once at the fallback
// quality before giving up
func (p *Packager) encodeTile(tile *pyramid.Tile) ([]byte, error) {
	img := &image.RGBA{
		Pix:    tile.Pix,
		Stride: tile.Width * 4,
		Rect:   image.Rect(0, 0, tile.Width, tile.Height),
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		log.Printf("[Packager] Encoding at quality %d failed for %s, retrying at %d: %v", p.quality, tile.Path(), p.fallbackQuality, err)
		buf.Reset()
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.fallbackQuality}); err != nil {
			return nil, &EncodeError{Level: tile.Level, Face: tile.Face.Letter(), Row: tile.Row, Col: tile.Col, Err: err}
		}
	}

	return buf.Bytes(), nil
}
