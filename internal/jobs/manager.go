package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"panotiler/internal/conversion"
	"panotiler/internal/imaging"
	"panotiler/internal/pyramid"
)

// MaxConcurrentJobs bounds the number of conversions running at once
const MaxConcurrentJobs = 2

// Manager runs conversion jobs in the background. Jobs live in memory only:
// archives are fully re-derivable from their sources, so nothing is persisted
// across restarts.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	cancels map[string]context.CancelFunc

	// converterOpts is the base configuration applied to every job's
	// converter; a per-job progress callback is appended at run time.
	converterOpts []conversion.Option
	sem           *semaphore.Weighted
	wg            sync.WaitGroup
}

// NewManager creates a job manager; converterOpts configure every job's converter
func NewManager(converterOpts ...conversion.Option) *Manager {
	return &Manager{
		jobs:          make(map[string]*Job),
		cancels:       make(map[string]context.CancelFunc),
		converterOpts: converterOpts,
		sem:           semaphore.NewWeighted(MaxConcurrentJobs),
	}
}

// Submit queues a new conversion job and starts it in the background
func (m *Manager) Submit(name string, sourceData []byte) *Job {
	job := NewJob(name, sourceData)

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	log.Printf("[Jobs] Submitted job %s (%s)", job.ID, name)

	m.wg.Add(1)
	go m.run(ctx, job)

	return m.snapshot(job.ID)
}

// run executes one job under the concurrency limit
func (m *Manager) run(ctx context.Context, job *Job) {
	defer m.wg.Done()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.finish(job.ID, nil, err)
		return
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	if job.finished() { // cancelled while waiting for a slot
		m.mu.Unlock()
		return
	}
	job.markStarted()
	sourceData := job.sourceData
	m.mu.Unlock()

	src, err := imaging.Decode(sourceData)
	if err != nil {
		m.finish(job.ID, nil, err)
		return
	}

	opts := append([]conversion.Option{}, m.converterOpts...)
	opts = append(opts, conversion.WithProgressCallback(func(p pyramid.Progress) {
		m.mu.Lock()
		if j, ok := m.jobs[job.ID]; ok {
			j.Progress = p
		}
		m.mu.Unlock()
	}))

	result, err := conversion.NewConverter(opts...).Convert(ctx, src)
	m.finish(job.ID, result, err)
}

// finish records a job's terminal state
func (m *Manager) finish(id string, result *conversion.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}
	delete(m.cancels, id)

	if job.finished() {
		return
	}

	switch {
	case err == nil:
		job.markCompleted(result)
		log.Printf("[Jobs] Job completed: %s (%d tiles)", id, result.TotalTiles)
	case errors.Is(err, context.Canceled):
		job.markCancelled()
		log.Printf("[Jobs] Job cancelled: %s", id)
	default:
		job.markFailed(err)
		log.Printf("[Jobs] Job failed: %s - %v", id, err)
	}
}

// Get returns a snapshot of a job's public state
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	copied := *job
	copied.sourceData = nil
	copied.result = nil
	return &copied, nil
}

// List returns snapshots of all jobs in submission order
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Job, 0, len(m.order))
	for _, id := range m.order {
		if job, ok := m.jobs[id]; ok {
			copied := *job
			copied.sourceData = nil
			copied.result = nil
			result = append(result, &copied)
		}
	}
	return result
}

// Archive returns the packaged archive of a completed job
func (m *Manager) Archive(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if job.Status != StatusCompleted || job.result == nil {
		return nil, fmt.Errorf("job %s is not completed (status: %s)", id, job.Status)
	}
	return job.result.Archive, nil
}

// Cancel aborts a pending or running job
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.finished() {
		return fmt.Errorf("job already finished")
	}

	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}
	job.markCancelled()
	log.Printf("[Jobs] Cancelled job: %s", id)
	return nil
}

// ClearFinished removes completed, failed and cancelled jobs
func (m *Manager) ClearFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()

	newOrder := make([]string, 0, len(m.order))
	for _, id := range m.order {
		job := m.jobs[id]
		if job != nil && job.finished() {
			delete(m.jobs, id)
			continue
		}
		newOrder = append(newOrder, id)
	}
	m.order = newOrder
}

// Close cancels everything outstanding and waits for workers to exit
func (m *Manager) Close() {
	m.mu.Lock()
	for id, cancel := range m.cancels {
		cancel()
		if job, ok := m.jobs[id]; ok && !job.finished() {
			job.markCancelled()
		}
	}
	m.cancels = make(map[string]context.CancelFunc)
	m.mu.Unlock()

	m.wg.Wait()
}

// snapshot returns a copy of the job's public state
func (m *Manager) snapshot(id string) *Job {
	job, _ := m.Get(id)
	return job
}
