// Package sandbox runs prepared user source inside a resource-capped Docker
// container. The container gets a read-only mount of a job-exclusive staging
// directory, fixed memory/CPU ceilings and a hard wall-clock limit.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models/configs"
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/sanitize"
)

// Resource ceilings are fixed system constants, not per-request knobs.
const (
	MemoryLimitBytes = 128 * 1024 * 1024
	cpuPeriod        = 100_000
	cpuQuota         = 50_000 // half of one logical core
	WallClockLimit   = 10 * time.Second

	workDir = "/workspace"
)

// drainGrace is how long Run waits after container exit for the log stream
// to deliver trailing output.
const drainGrace = 500 * time.Millisecond

type runtimeSpec struct {
	image string
	file  string
	cmd   []string
}

var runtimes = map[models.Language]runtimeSpec{
	models.Python:     {image: "python:3.11-slim", file: "main.py", cmd: []string{"python", workDir + "/main.py"}},
	models.JavaScript: {image: "node:20-slim", file: "main.js", cmd: []string{"node", workDir + "/main.js"}},
}

// ExecutionResult carries the combined captured output. Success is false
// only for the wall-clock timeout path; a normal exit reports true
// regardless of the program's own exit code.
type ExecutionResult struct {
	Output  string
	Success bool
}

type Executor struct {
	client     *client.Client
	logger     zerolog.Logger
	stagingDir string
}

func StartExecutor(cfg configs.SandboxConfig, logger zerolog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	cli.NegotiateAPIVersion(context.Background())

	return &Executor{
		client:     cli,
		logger:     logger,
		stagingDir: cfg.StagingDirectory,
	}, nil
}

// Run stages the source, executes it under the fixed ceilings and streams
// combined stdout/stderr as it arrives. Staging directory and container are
// released exactly once on every exit path. ctx cancellation kills the
// container; the wall-clock timeout is a normal outcome, not an error.
func (e *Executor) Run(ctx context.Context, source string, lang models.Language, env []string) (ExecutionResult, error) {
	spec, ok := runtimes[lang]
	if !ok {
		return ExecutionResult{}, customErrors.ErrUnsupportedLanguage
	}

	dataPath, err := e.stage(source, spec.file)
	if err != nil {
		return ExecutionResult{}, err
	}
	defer os.RemoveAll(dataPath)

	containerConfig := &container.Config{
		Image:      spec.image,
		Cmd:        spec.cmd,
		WorkingDir: workDir,
		Env:        env,
	}
	hostConfig := &container.HostConfig{
		Binds: []string{fmt.Sprintf("%s:%s:ro", dataPath, workDir)},
		Resources: container.Resources{
			Memory:    MemoryLimitBytes,
			CPUPeriod: cpuPeriod,
			CPUQuota:  cpuQuota,
		},
	}

	created, err := e.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("failed to create container: %w", err)
	}
	defer e.client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})

	if err := e.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return ExecutionResult{}, fmt.Errorf("failed to start container: %w", err)
	}

	out := &streamBuffer{}
	drained := e.captureOutput(ctx, created.ID, out)

	statusCh, errCh := e.client.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	timer := time.NewTimer(WallClockLimit)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			return ExecutionResult{}, fmt.Errorf("failed waiting for container: %w", err)
		}

	case <-statusCh:

	case <-timer.C:
		e.kill(created.ID)
		e.logger.Warn().Str("container", created.ID[:12]).Msg("wall-clock limit hit, container killed")
		waitDrained(drained)
		out.append("\n" + sanitize.TimeoutSentinel)
		return ExecutionResult{Output: out.String(), Success: false}, nil

	case <-ctx.Done():
		e.kill(created.ID)
		return ExecutionResult{}, ctx.Err()
	}

	waitDrained(drained)
	return ExecutionResult{Output: out.String(), Success: true}, nil
}

func (e *Executor) stage(source, fileName string) (string, error) {
	if e.stagingDir != "" {
		if err := os.MkdirAll(e.stagingDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create staging root: %w", err)
		}
	}
	tempPath, err := os.MkdirTemp(e.stagingDir, "sandbox-job-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	absPath, err := filepath.Abs(tempPath)
	if err != nil {
		os.RemoveAll(tempPath)
		return "", err
	}
	if err := os.WriteFile(filepath.Join(absPath, fileName), []byte(source), 0o644); err != nil {
		os.RemoveAll(absPath)
		return "", fmt.Errorf("failed to stage source file: %w", err)
	}
	return absPath, nil
}

// captureOutput follows the container's log stream, demultiplexing stdout
// and stderr into one buffer in arrival order. The returned channel closes
// when the stream ends.
func (e *Executor) captureOutput(ctx context.Context, containerID string, out *streamBuffer) <-chan struct{} {
	drained := make(chan struct{})
	logs, err := e.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("container", containerID[:12]).Msg("failed to follow container logs")
		close(drained)
		return drained
	}
	go func() {
		defer close(drained)
		defer logs.Close()
		_, _ = stdcopy.StdCopy(out, out, logs)
	}()
	return drained
}

func waitDrained(drained <-chan struct{}) {
	select {
	case <-drained:
	case <-time.After(drainGrace):
	}
}

func (e *Executor) kill(containerID string) {
	if err := e.client.ContainerKill(context.Background(), containerID, "KILL"); err != nil {
		e.logger.Warn().Err(err).Str("container", containerID[:12]).Msg("failed to kill container")
	}
}

// streamBuffer collects output from the log-follow goroutine while the run
// loop may be reading it on timeout.
type streamBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *streamBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *streamBuffer) append(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, s...)
}

func (b *streamBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
