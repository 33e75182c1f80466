// Package repository owns every job record for the lifetime of the process.
// There is deliberately no persistence: restart loses all jobs. A background
// sweep reclaims terminal records older than the retention window.
package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models/configs"
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
)

const DefaultRetention = time.Hour

// logTimeFormat is sortable and human-readable.
const logTimeFormat = "2006-01-02 15:04:05"

type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job

	now       func() time.Time
	retention time.Duration
	logger    zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// StartJobRegistry builds the registry and starts the sweep loop, which runs
// once per retention window.
func StartJobRegistry(cfg configs.RegistryConfig, logger zerolog.Logger) *JobRegistry {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	r := &JobRegistry{
		jobs:      make(map[string]*models.Job),
		now:       cfg.Clock,
		retention: cfg.Retention,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

func (r *JobRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Create stores a fresh queued job and returns a snapshot of it.
func (r *JobRegistry) Create(language models.Language, code string, scenario models.Scenario) models.Job {
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.StatusQueued,
		Language:  language,
		Code:      code,
		Scenario:  scenario,
		Logs:      []string{},
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return cloneJob(job)
}

func (r *JobRegistry) Get(id string) (models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, customErrors.ErrNotFound
	}
	return cloneJob(job), nil
}

// List returns job summaries, newest first. A nil filter returns everything.
// Summaries never carry code or result bodies.
func (r *JobRegistry) List(filter *models.Status) []models.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]models.Summary, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter != nil && job.Status != *filter {
			continue
		}
		summaries = append(summaries, models.Summary{
			ID:          job.ID,
			Status:      job.Status,
			CreatedAt:   job.CreatedAt,
			CompletedAt: copyTime(job.CompletedAt),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// AppendLog stamps the message with the current time and appends it to the
// job's log. Unknown ids are a no-op.
func (r *JobRegistry) AppendLog(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Logs = append(job.Logs, r.now().Format(logTimeFormat)+" "+message)
}

// MarkRunning moves a queued job to running. Any other starting state is
// rejected so terminal states stay frozen.
func (r *JobRegistry) MarkRunning(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return customErrors.ErrNotFound
	}
	if job.Status != models.StatusQueued {
		return customErrors.ErrInvalidState
	}
	job.Status = models.StatusRunning
	return nil
}

// Complete resolves the job with captured output.
func (r *JobRegistry) Complete(id, output string) error {
	return r.finish(id, models.StatusCompleted, &models.Result{Output: output})
}

// Fail resolves the job with the failure message verbatim.
func (r *JobRegistry) Fail(id, message string) error {
	return r.finish(id, models.StatusFailed, &models.Result{Error: message})
}

// Cancel flips a non-terminal job to cancelled. The caller is responsible
// for signalling the running execution, if any.
func (r *JobRegistry) Cancel(id string) (models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, customErrors.ErrNotFound
	}
	if job.Status.Terminal() {
		return models.Job{}, customErrors.ErrInvalidState
	}
	job.Status = models.StatusCancelled
	now := r.now()
	job.CompletedAt = &now
	return cloneJob(job), nil
}

// finish performs the single allowed transition into a terminal state;
// result and completedAt are set here exactly once and never again.
func (r *JobRegistry) finish(id string, status models.Status, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return customErrors.ErrNotFound
	}
	if job.Status.Terminal() {
		return customErrors.ErrInvalidState
	}
	job.Status = status
	job.Result = result
	now := r.now()
	job.CompletedAt = &now
	return nil
}

func (r *JobRegistry) sweepLoop() {
	ticker := time.NewTicker(r.retention)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := r.SweepOnce()
			if removed > 0 {
				r.logger.Info().Int("removed", removed).Msg("swept expired job records")
			}
		case <-r.stop:
			return
		}
	}
}

// SweepOnce deletes every record whose completedAt predates now minus the
// retention window. Records still active (no completedAt) are never removed.
func (r *JobRegistry) SweepOnce() int {
	cutoff := r.now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

func cloneJob(job *models.Job) models.Job {
	clone := *job
	clone.Logs = append([]string(nil), job.Logs...)
	if job.Result != nil {
		result := *job.Result
		clone.Result = &result
	}
	clone.CompletedAt = copyTime(job.CompletedAt)
	return clone
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
