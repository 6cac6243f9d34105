package jobs

import (
	"time"

	"github.com/google/uuid"

	"panotiler/internal/conversion"
	"panotiler/internal/pyramid"
)

// Status represents the current status of a conversion job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job represents one asynchronous panorama conversion. The encoded source
// bytes are held until the job runs and dropped afterwards; the archive is
// kept until the job is cleared.
type Job struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Status      Status           `json:"status"`
	CreatedAt   string           `json:"createdAt"`
	StartedAt   string           `json:"startedAt,omitempty"`
	CompletedAt string           `json:"completedAt,omitempty"`
	Progress    pyramid.Progress `json:"progress"`
	Error       string           `json:"error,omitempty"`

	// Result counts, populated on completion
	TotalTiles int `json:"totalTiles,omitempty"`
	ZoomLevels int `json:"zoomLevels,omitempty"`
	MaxZoom    int `json:"maxZoom,omitempty"`

	sourceData []byte
	result     *conversion.Result
}

// NewJob creates a pending job for an encoded panorama
func NewJob(name string, sourceData []byte) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     StatusPending,
		CreatedAt:  time.Now().Format(time.RFC3339),
		sourceData: sourceData,
	}
}

// markStarted transitions the job to running
func (j *Job) markStarted() {
	j.StartedAt = time.Now().Format(time.RFC3339)
	j.Status = StatusRunning
}

// markCompleted records the finished conversion
func (j *Job) markCompleted(result *conversion.Result) {
	j.CompletedAt = time.Now().Format(time.RFC3339)
	j.Status = StatusCompleted
	j.result = result
	j.TotalTiles = result.TotalTiles
	j.ZoomLevels = result.ZoomLevels
	j.MaxZoom = result.MaxZoom
	j.Progress.Percent = 100
	j.sourceData = nil
}

// markFailed records a conversion failure
func (j *Job) markFailed(err error) {
	j.CompletedAt = time.Now().Format(time.RFC3339)
	j.Status = StatusFailed
	if err != nil {
		j.Error = err.Error()
	}
	j.sourceData = nil
}

// markCancelled records a cancellation
func (j *Job) markCancelled() {
	j.CompletedAt = time.Now().Format(time.RFC3339)
	j.Status = StatusCancelled
	j.sourceData = nil
}

// finished reports whether the job has reached a terminal state
func (j *Job) finished() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
