package worker

import (
	"sync"
	"time"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/modelstore"
)

const defaultRetention = 100

// Status is the lifecycle state of a training job.
type Status string

// Job statuses.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a point-in-time view of a training job.
type Job struct {
	ID          string                  `json:"id"`
	Status      Status                  `json:"status"`
	NumSamples  int                     `json:"num_samples"`
	Result      *modelstore.TrainResult `json:"result,omitempty"`
	Error       string                  `json:"error,omitempty"`
	ErrorKind   string                  `json:"error_kind,omitempty"`
	SubmittedAt time.Time               `json:"submitted_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	FinishedAt  *time.Time              `json:"finished_at,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j Job) Done() bool { return j.Status == StatusSucceeded || j.Status == StatusFailed }

// Tracker records job state for polling. Finished jobs beyond the retention
// limit are forgotten oldest first.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	finished  []string
	retention int
	now       func() time.Time
}

// NewTracker creates a tracker keeping at most retention finished jobs.
func NewTracker(retention int) *Tracker {
	if retention < 1 {
		retention = defaultRetention
	}
	return &Tracker{
		jobs:      make(map[string]*Job),
		retention: retention,
		now:       time.Now,
	}
}

// Add registers a queued job.
func (t *Tracker) Add(id string, numSamples int) Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := &Job{ID: id, Status: StatusQueued, NumSamples: numSamples, SubmittedAt: t.now().UTC()}
	t.jobs[id] = j
	return *j
}

// Remove forgets a job, used when a submission could not be enqueued.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// Get returns the job with id or model.ErrJobNotFound.
func (t *Tracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, model.ErrJobNotFound
	}
	return *j, nil
}

// Counts returns the number of tracked jobs per status.
func (t *Tracker) Counts() map[Status]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Status]int, 4)
	for _, j := range t.jobs {
		out[j.Status]++
	}
	return out
}

func (t *Tracker) start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[id]; ok {
		now := t.now().UTC()
		j.Status = StatusRunning
		j.StartedAt = &now
	}
}

func (t *Tracker) finish(id string, res modelstore.TrainResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return
	}
	now := t.now().UTC()
	j.FinishedAt = &now
	if err != nil {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.ErrorKind = model.KindOf(err)
	} else {
		j.Status = StatusSucceeded
		j.Result = &res
	}

	t.finished = append(t.finished, id)
	for len(t.finished) > t.retention {
		delete(t.jobs, t.finished[0])
		t.finished = t.finished[1:]
	}
}
