package api

import (
	"sync"
	"time"

	"github.com/Sanchay-T/NER/internal/report"
)

// RunStatus represents the state of a batch run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run tracks the state of one batch submitted over the API.
type Run struct {
	mu sync.Mutex

	ID   string `json:"run_id"`
	Root string `json:"root"`

	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	Summary *report.BatchSummary `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = time.Now()
}

// Complete marks the run finished with its summary.
func (r *Run) Complete(summary *report.BatchSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunCompleted
	r.Summary = summary
	r.UpdatedAt = time.Now()
}

// Fail marks the run failed with an error message.
func (r *Run) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunFailed
	r.Error = msg
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string               `json:"run_id"`
	Root      string               `json:"root"`
	Status    RunStatus            `json:"status"`
	Error     string               `json:"error,omitempty"`
	Summary   *report.BatchSummary `json:"summary,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunSnapshot{
		ID:        r.ID,
		Root:      r.Root,
		Status:    r.Status,
		Error:     r.Error,
		Summary:   r.Summary,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs. In-flight runs keep refreshing UpdatedAt
// through their status transitions, so only settled runs age out.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl && run.Status != RunRunning
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}
