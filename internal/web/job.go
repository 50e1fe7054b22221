package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack/internal/tracker"
)

// JobStatus represents the status of a background job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusError     JobStatus = "error"
)

// Job is a background mailbox scan
type Job struct {
	ID          string
	Status      JobStatus
	Progress    int
	Done        int
	Total       int
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
	Result      *tracker.ScanResult

	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.Mutex
}

// Update records how many of the fetched messages have been classified
func (j *Job) Update(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Done = done
	j.Total = total
	if total > 0 {
		j.Progress = done * 100 / total
	}
}

// Complete marks the job as completed
func (j *Job) Complete(result *tracker.ScanResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != JobStatusRunning {
		return
	}
	j.Status = JobStatusCompleted
	j.CompletedAt = time.Now()
	j.Progress = 100
	j.Result = result
	j.cancelFunc()
}

// Fail stops the job with an error. A job already cancelled stays cancelled.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != JobStatusRunning || errors.Is(err, context.Canceled) {
		return
	}
	j.Status = JobStatusError
	j.CompletedAt = time.Now()
	j.Error = err.Error()
	j.cancelFunc()
}

// Cancel cancels the job
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status == JobStatusRunning {
		j.Status = JobStatusCancelled
		j.CompletedAt = time.Now()
		j.cancelFunc()
	}
}

func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status == JobStatusRunning
}

// Context returns the job's context
func (j *Job) Context() context.Context {
	return j.ctx
}

// ToJSON returns the job data for JSON serialization
func (j *Job) ToJSON() map[string]interface{} {
	j.mu.Lock()
	defer j.mu.Unlock()

	data := map[string]interface{}{
		"id":         j.ID,
		"status":     j.Status,
		"progress":   j.Progress,
		"done":       j.Done,
		"total":      j.Total,
		"started_at": j.StartedAt,
	}
	if !j.CompletedAt.IsZero() {
		data["completed_at"] = j.CompletedAt
	}
	if j.Error != "" {
		data["error"] = j.Error
	}
	if j.Result != nil {
		data["result"] = j.Result
	}
	return data
}

// JobManager manages background jobs
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
	}
}

// Start registers a new running job. It fails when another job is still
// running and returns that job instead.
func (jm *JobManager) Start() (*Job, *Job) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for _, job := range jm.jobs {
		if job.IsRunning() {
			return nil, job
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:         uuid.New().String(),
		Status:     JobStatusRunning,
		StartedAt:  time.Now(),
		ctx:        ctx,
		cancelFunc: cancel,
	}
	jm.jobs[job.ID] = job
	return job, nil
}

// Get returns a job by ID, or nil if not found
func (jm *JobManager) Get(id string) *Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	return jm.jobs[id]
}

// GetActive returns the currently running job, or nil if none
func (jm *JobManager) GetActive() *Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	for _, job := range jm.jobs {
		if job.IsRunning() {
			return job
		}
	}
	return nil
}

// Cleanup removes finished jobs older than maxAge
func (jm *JobManager) Cleanup(maxAge time.Duration) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range jm.jobs {
		job.mu.Lock()
		stale := job.Status != JobStatusRunning && job.CompletedAt.Before(cutoff)
		job.mu.Unlock()
		if stale {
			delete(jm.jobs, id)
		}
	}
}
