package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dgallion1/papertrans/internal/llm"
)

// JobStatus represents the state of a translation job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusLoading      JobStatus = "loading"
	StatusRelevelling  JobStatus = "relevelling"
	StatusTitles       JobStatus = "translating_titles"
	StatusTranslating  JobStatus = "translating"
	StatusStoring      JobStatus = "storing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusPartial      JobStatus = "partial"
	StatusDupCompleted JobStatus = "duplicate_completed"
)

// Done reports whether the job reached a final state.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupCompleted:
		return true
	}
	return false
}

// HasResult reports whether a finished job produced a stored result.
func (s JobStatus) HasResult() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusDupCompleted
}

// Settings are the per-job translation choices.
type Settings struct {
	Style   llm.Style `json:"style"`
	SplitBy SplitMode `json:"split_by"`
	Budget  int       `json:"budget"`
	Force   bool      `json:"force"`
}

// Job tracks the state of a single paper translation.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Settings Settings  `json:"settings"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	ResultKey   string    `json:"result_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalUnits    int      `json:"total_units"`
	UnitsDone     int      `json:"units_done"`
	FailedBatches int      `json:"failed_batches"`
	BreakIssues   int      `json:"break_issues"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job holding the uploaded file.
func NewJob(filename, title string, settings Settings, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is an in-memory job registry. Jobs expire ttl after they were
// last stored.
type JobStore struct {
	c *gocache.Cache
}

func NewJobStore(ttl time.Duration) *JobStore {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &JobStore{c: gocache.New(ttl, cleanup)}
}

// Put stores job and restarts its expiry.
func (s *JobStore) Put(job *Job) {
	s.c.SetDefault(job.ID, job)
}

func (s *JobStore) Get(id string) *Job {
	v, ok := s.c.Get(id)
	if !ok {
		return nil
	}
	return v.(*Job)
}

// Len returns the number of jobs, including expired ones not yet evicted.
func (s *JobStore) Len() int {
	return s.c.ItemCount()
}

// Cleanup evicts expired jobs now instead of waiting for the janitor.
func (s *JobStore) Cleanup() {
	s.c.DeleteExpired()
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
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// Units implements Reporter.
func (j *Job) Units(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalUnits = total
	j.UpdatedAt = time.Now()
}

// UnitDone implements Reporter.
func (j *Job) UnitDone(u UnitResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.UnitsDone++
	j.Progress.FailedBatches += u.Failed
	j.UpdatedAt = time.Now()
}

// Stage implements Reporter.
func (j *Job) Stage(status JobStatus, phase string) {
	j.SetStatus(status, phase)
}

// SetBreakIssues records the number of line-break issues found.
func (j *Job) SetBreakIssues(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BreakIssues = n
}

// SetResult records where the result is stored and the content hash.
func (j *Job) SetResult(hash, key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.ResultKey = key
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// setTitle fills in the title unless one was given at upload.
func (j *Job) setTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
}

// releaseFileData drops the upload once it has been loaded.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Settings    Settings  `json:"settings"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	ResultKey   string    `json:"result_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Settings:    j.Settings,
		Progress:    p,
		ContentHash: j.ContentHash,
		ResultKey:   j.ResultKey,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
