package pyramid

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"panotiler/internal/cubemap"
)

// DefaultWorkers is the default number of concurrent face rasterization workers
const DefaultWorkers = 4

// Progress reports pyramid generation progress. Advisory only; callers must
// not rely on it for correctness or ordering.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
}

// faceTask is one unit of work: rasterize and slice a single (level, face) pair
type faceTask struct {
	index int
	spec  LevelSpec
	face  cubemap.Face
}

// faceResult holds the tiles of one completed face
type faceResult struct {
	index int
	tiles []*Tile
	err   error
}

// Driver generates the full tile pyramid from a source panorama using a
// bounded worker pool. Faces are independent, so each (level, face) pair is
// dispatched as one task owning a private output buffer; the only shared
// state is read-only access to the source pixels.
type Driver struct {
	workers          int
	sem              *semaphore.Weighted
	progressCallback func(Progress)
	logCallback      func(string)
}

// NewDriver creates a pyramid driver with the given worker count
func NewDriver(workers int, progressCallback func(Progress), logCallback func(string)) *Driver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Driver{
		workers:          workers,
		sem:              semaphore.NewWeighted(int64(workers)),
		progressCallback: progressCallback,
		logCallback:      logCallback,
	}
}

// emitLog emits a log message if callback is set
func (d *Driver) emitLog(message string) {
	if d.logCallback != nil {
		d.logCallback(message)
	}
}

// emitProgress emits generation progress if callback is set
func (d *Driver) emitProgress(progress Progress) {
	if d.progressCallback != nil {
		d.progressCallback(progress)
	}
}

// Generate rasterizes and slices every level and face of the pyramid,
// returning all tiles in deterministic (level, face, row, col) order.
// A failure in any face aborts the whole run; no partial result is returned.
func (d *Driver) Generate(ctx context.Context, src *cubemap.SourceImage) ([]*Tile, error) {
	levels := Levels()
	totalTiles := TotalTiles()

	tasks := make([]faceTask, 0, len(levels)*cubemap.FaceCount)
	for _, spec := range levels {
		for _, face := range cubemap.Faces() {
			tasks = append(tasks, faceTask{index: len(tasks), spec: spec, face: face})
		}
	}

	d.emitLog(fmt.Sprintf("Generating %d tiles across %d levels with %d workers...", totalTiles, len(levels), d.workers))

	taskChan := make(chan faceTask, len(tasks))
	resultChan := make(chan faceResult, len(tasks))

	workerCount := d.workers
	if len(tasks) < workerCount {
		workerCount = len(tasks)
	}

	var processed int64
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				if err := d.sem.Acquire(ctx, 1); err != nil {
					resultChan <- faceResult{index: task.index, err: err}
					continue
				}

				tiles, err := d.renderFaceTiles(src, task.spec, task.face)
				d.sem.Release(1)

				resultChan <- faceResult{index: task.index, tiles: tiles, err: err}

				if err == nil {
					count := atomic.AddInt64(&processed, int64(len(tiles)))
					d.emitProgress(Progress{
						Completed: int(count),
						Total:     totalTiles,
						Percent:   int(count * 100 / int64(totalTiles)),
						Status:    fmt.Sprintf("Generated %d/%d tiles", count, totalTiles),
					})
				}
			}
		}()
	}

	// Feed tasks, honoring cancellation
	go func() {
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				close(taskChan)
				return
			case taskChan <- task:
			}
		}
		close(taskChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([][]*Tile, len(tasks))
	var firstErr error
	received := 0
	for result := range resultChan {
		received++
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		results[result.index] = result.tiles
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if received != len(tasks) {
		return nil, fmt.Errorf("incomplete generation: %d/%d faces", received, len(tasks))
	}

	tiles := make([]*Tile, 0, totalTiles)
	for _, faceTiles := range results {
		tiles = append(tiles, faceTiles...)
	}
	if len(tiles) != totalTiles {
		return nil, fmt.Errorf("tile count mismatch: got %d, want %d", len(tiles), totalTiles)
	}

	log.Printf("[Pyramid] Generated %d tiles", len(tiles))
	return tiles, nil
}

// renderFaceTiles rasterizes one face and slices it into tiles
func (d *Driver) renderFaceTiles(src *cubemap.SourceImage, spec LevelSpec, face cubemap.Face) ([]*Tile, error) {
	facePix, err := cubemap.RenderFace(src, face, spec.FaceSize)
	if err != nil {
		return nil, fmt.Errorf("level %d face %s: %w", spec.Level, face, err)
	}

	tiles, err := SliceFace(facePix, spec, face)
	if err != nil {
		return nil, fmt.Errorf("level %d face %s: %w", spec.Level, face, err)
	}

	return tiles, nil
}
