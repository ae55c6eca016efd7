package pipeline

import (
	"sync"
	"time"

	"github.com/mlarcher/pageproof/internal/resolve"
	"github.com/mlarcher/pageproof/internal/stylesheet"
	"github.com/mlarcher/pageproof/internal/validate"
)

// JobStatus represents the state of a generation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusComposing  JobStatus = "composing"
	StatusRendering  JobStatus = "rendering"
	StatusResolving  JobStatus = "resolving"
	StatusValidating JobStatus = "validating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JobRequest is the caller-supplied portion of a job: the manuscript file
// plus the layout parameters applied to it.
type JobRequest struct {
	Filename      string
	Title         string
	Template      string
	Overrides     stylesheet.Overrides
	TOCEnabled    bool
	MaxIterations int
}

// JobResult is the finished output of a completed job.
type JobResult struct {
	PageCount  int             `json:"page_count"`
	Passes     int             `json:"passes"`
	Converged  bool            `json:"converged"`
	Warning    string          `json:"warning,omitempty"`
	CSSKey     string          `json:"css_key"`
	TOC        []resolve.Entry `json:"toc,omitempty"`
	Validation validate.Report `json:"validation"`
}

// Job tracks the state of a single manuscript generation.
type Job struct {
	mu sync.Mutex

	ID      string     `json:"job_id"`
	Request JobRequest `json:"-"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *JobResult
	errors   []string
}

// NewJob creates a queued job for the given request and file bytes.
func NewJob(req JobRequest, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        NewID(),
		Request:   req,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetResult records the finished output.
func (j *Job) SetResult(res *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.UpdatedAt = time.Now()
}

// Result returns the finished output, or nil while the job is running.
func (j *Job) Result() *JobResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// FileData returns the raw manuscript bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the manuscript bytes once processing is done.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Template  string    `json:"template"`
	Errors    []string  `json:"errors"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Request.Filename,
		Template:  j.Request.Template,
		Errors:    errs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
