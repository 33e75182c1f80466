package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/repository"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/faultproxy"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/inject"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/sandbox"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/sanitize"
)

// Executor runs prepared source in an isolated environment. Satisfied by
// sandbox.Executor.
type Executor interface {
	Run(ctx context.Context, source string, lang models.Language, env []string) (sandbox.ExecutionResult, error)
}

// FaultProxy provisions and tears down per-job network fault proxies.
// Satisfied by faultproxy.Controller.
type FaultProxy interface {
	Provision(ctx context.Context, jobID string, sc models.Scenario) (*faultproxy.Handle, error)
	Teardown(handle *faultproxy.Handle)
}

// LifecycleService drives each job through its state machine: injection,
// proxy provisioning, container execution, sanitization, terminal update.
// Every job runs in its own goroutine holding a cancellable context, so
// cancelling a job actually kills its container.
type LifecycleService struct {
	registry *repository.JobRegistry
	executor Executor
	proxies  FaultProxy
	logger   zerolog.Logger

	mu      sync.Mutex
	handles map[string]context.CancelFunc
}

func StartLifecycleService(registry *repository.JobRegistry, executor Executor, proxies FaultProxy, logger zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		registry: registry,
		executor: executor,
		proxies:  proxies,
		logger:   logger,
		handles:  make(map[string]context.CancelFunc),
	}
}

// Launch starts the job's execution flow asynchronously. There is no bound
// on simultaneously active jobs.
func (s *LifecycleService) Launch(job models.Job) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.handles[job.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.handles, job.ID)
			s.mu.Unlock()
		}()
		s.process(ctx, job)
	}()
}

// Cancel flips the job to cancelled and signals its running flow, if any.
// The registry's state machine rejects cancelling terminal jobs.
func (s *LifecycleService) Cancel(jobID string) (models.Job, error) {
	job, err := s.registry.Cancel(jobID)
	if err != nil {
		return models.Job{}, err
	}
	s.registry.AppendLog(jobID, "job cancelled by client")
	s.logger.Info().Str("job", jobID).Msg("job cancelled")

	s.mu.Lock()
	cancel, ok := s.handles[jobID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return job, nil
}

// process is the outermost boundary of the asynchronous flow: every failure
// inside it, panics included, converts into a terminal failed state and
// nothing escapes the goroutine.
func (s *LifecycleService) process(ctx context.Context, job models.Job) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Str("job", job.ID).Interface("panic", rec).Msg("job flow panicked")
			s.fail(job.ID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	if err := s.registry.MarkRunning(job.ID); err != nil {
		// Cancelled before the flow got scheduled.
		return
	}
	s.registry.AppendLog(job.ID, "execution started")
	s.logger.Info().Str("job", job.ID).Str("language", job.Language.String()).Msg("job started")

	source, err := inject.Inject(job.Code, job.Scenario, job.Language)
	if err != nil {
		s.fail(job.ID, err.Error())
		return
	}

	var env []string
	if job.Scenario.NeedsNetworkFaults() {
		handle, err := s.proxies.Provision(ctx, job.ID, job.Scenario)
		if err != nil {
			s.fail(job.ID, err.Error())
			return
		}
		// Exactly once per job, whatever the outcome. Teardown swallows and
		// logs its own errors.
		defer s.proxies.Teardown(handle)

		proxyURL := fmt.Sprintf("http://%s:%d", handle.Host, handle.Port)
		env = append(env, "HTTP_PROXY="+proxyURL, "HTTPS_PROXY="+proxyURL)
		s.registry.AppendLog(job.ID, "network fault proxy provisioned at "+proxyURL)
	}

	result, err := s.executor.Run(ctx, source, job.Language, env)
	if err != nil {
		s.registry.AppendLog(job.ID, "execution failed: "+err.Error())
		s.fail(job.ID, err.Error())
		return
	}

	if !result.Success {
		// Wall-clock timeout: a normal resolution, never an error.
		s.registry.AppendLog(job.ID, "execution hit the wall-clock limit")
	}
	output := sanitize.Sanitize(result.Output)
	if err := s.registry.Complete(job.ID, output); err != nil {
		// Job went terminal underneath us (cancelled); result stands.
		return
	}
	s.registry.AppendLog(job.ID, "execution finished")
	s.logger.Info().Str("job", job.ID).Bool("timedOut", !result.Success).Msg("job finished")
}

// fail marks the job failed with the message verbatim, ignoring jobs that
// already reached a terminal state.
func (s *LifecycleService) fail(jobID, message string) {
	if err := s.registry.Fail(jobID, message); err != nil {
		return
	}
	s.logger.Warn().Str("job", jobID).Str("error", message).Msg("job failed")
}
