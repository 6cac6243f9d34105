package conversion

import (
	"context"
	"fmt"
	"log"
	"time"

	"panotiler/internal/archive"
	"panotiler/internal/cubemap"
	"panotiler/internal/pyramid"
)

// Result is the outcome of a successful conversion: the packaged archive
// plus the counts consumers report to the user.
type Result struct {
	Archive    []byte `json:"-"`
	TotalTiles int    `json:"totalTiles"`
	ZoomLevels int    `json:"zoomLevels"`
	MaxZoom    int    `json:"maxZoom"`
}

// Converter turns one equirectangular panorama into a packaged cubemap tile
// pyramid. The conversion is atomic: cancellation or any tile failure aborts
// the whole run and returns nothing.
type Converter struct {
	workers            int
	quality            int
	fallbackQuality    int
	progressCallback   func(pyramid.Progress)
	logCallback        func(string)
	trackEventCallback func(string, map[string]interface{})
}

// Option configures a Converter
type Option func(*Converter)

// WithWorkers sets the rasterization worker count
func WithWorkers(workers int) Option {
	return func(c *Converter) { c.workers = workers }
}

// WithQuality sets the primary and fallback JPEG qualities
func WithQuality(quality, fallbackQuality int) Option {
	return func(c *Converter) {
		c.quality = quality
		c.fallbackQuality = fallbackQuality
	}
}

// WithProgressCallback sets the advisory progress callback
func WithProgressCallback(cb func(pyramid.Progress)) Option {
	return func(c *Converter) { c.progressCallback = cb }
}

// WithLogCallback sets the log message callback
func WithLogCallback(cb func(string)) Option {
	return func(c *Converter) { c.logCallback = cb }
}

// WithTrackEventCallback sets the analytics event callback
func WithTrackEventCallback(cb func(string, map[string]interface{})) Option {
	return func(c *Converter) { c.trackEventCallback = cb }
}

// NewConverter creates a converter with the given options
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		workers:         pyramid.DefaultWorkers,
		quality:         archive.JPEGQuality,
		fallbackQuality: archive.FallbackJPEGQuality,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// emitLog emits a log message if callback is set
func (c *Converter) emitLog(message string) {
	if c.logCallback != nil {
		c.logCallback(message)
	}
}

// trackEvent tracks an analytics event if callback is set
func (c *Converter) trackEvent(event string, properties map[string]interface{}) {
	if c.trackEventCallback != nil {
		c.trackEventCallback(event, properties)
	}
}

// Convert generates the full tile pyramid for src and packages it into a
// ZIP archive with its manifest.
func (c *Converter) Convert(ctx context.Context, src *cubemap.SourceImage) (*Result, error) {
	start := time.Now()
	c.emitLog(fmt.Sprintf("Converting %dx%d panorama...", src.Width, src.Height))

	driver := pyramid.NewDriver(c.workers, c.progressCallback, c.logCallback)
	tiles, err := driver.Generate(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("pyramid generation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	packager := archive.NewPackager(c.quality, c.fallbackQuality, c.logCallback)
	data, err := packager.Package(tiles)
	if err != nil {
		return nil, err
	}

	levels := pyramid.Levels()
	result := &Result{
		Archive:    data,
		TotalTiles: len(tiles),
		ZoomLevels: len(levels),
		MaxZoom:    pyramid.MaxLevel(),
	}

	elapsed := time.Since(start)
	log.Printf("[Converter] Converted %dx%d source into %d tiles in %s", src.Width, src.Height, result.TotalTiles, elapsed.Round(time.Millisecond))

	c.trackEvent("conversion_complete", map[string]interface{}{
		"sourceWidth":  src.Width,
		"sourceHeight": src.Height,
		"totalTiles":   result.TotalTiles,
		"zoomLevels":   result.ZoomLevels,
		"maxZoom":      result.MaxZoom,
		"archiveBytes": len(data),
		"durationMs":   elapsed.Milliseconds(),
	})

	return result, nil
}
