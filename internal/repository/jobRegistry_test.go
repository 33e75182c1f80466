package repository

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models/configs"
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, clock *fakeClock) *JobRegistry {
	t.Helper()
	r := StartJobRegistry(configs.RegistryConfig{
		Retention: time.Hour,
		Clock:     clock.Now,
	}, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

func TestCreate_AssignsUniqueIDsUnderConcurrency(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())

	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := r.Create(models.Python, "print(1)", models.Scenario{})
			ids <- job.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate job id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestCreate_InitialState(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(t, clock)

	job := r.Create(models.Python, "print(1)", models.Scenario{})

	assert.Equal(t, models.StatusQueued, job.Status)
	assert.Empty(t, job.Logs)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.CompletedAt)
	assert.Equal(t, clock.Now(), job.CreatedAt)
}

func TestGet_UnknownID(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())

	_, err := r.Get("nope")
	assert.ErrorIs(t, err, customErrors.ErrNotFound)
}

func TestStatusTransitions_Monotonic(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())
	job := r.Create(models.Python, "x", models.Scenario{})

	require.NoError(t, r.MarkRunning(job.ID))
	require.NoError(t, r.Complete(job.ID, "out"))

	// No transition leaves a terminal state.
	assert.ErrorIs(t, r.MarkRunning(job.ID), customErrors.ErrInvalidState)
	assert.ErrorIs(t, r.Fail(job.ID, "late"), customErrors.ErrInvalidState)
	_, err := r.Cancel(job.ID)
	assert.ErrorIs(t, err, customErrors.ErrInvalidState)

	got, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "out", got.Result.Output)
}

func TestTerminalFieldsSetExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(t, clock)
	job := r.Create(models.Python, "x", models.Scenario{})

	require.NoError(t, r.MarkRunning(job.ID))
	require.NoError(t, r.Fail(job.ID, "boom"))
	first, err := r.Get(job.ID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.ErrorIs(t, r.Complete(job.ID, "late output"), customErrors.ErrInvalidState)

	second, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
}

func TestCancel_FromQueuedAndRunning(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())

	queued := r.Create(models.Python, "x", models.Scenario{})
	got, err := r.Cancel(queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	require.NotNil(t, got.CompletedAt)

	running := r.Create(models.Python, "x", models.Scenario{})
	require.NoError(t, r.MarkRunning(running.ID))
	got, err = r.Cancel(running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestAppendLog_StampsAndPreservesOrder(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())
	job := r.Create(models.Python, "x", models.Scenario{})

	r.AppendLog(job.ID, "first")
	r.AppendLog(job.ID, "second")

	got, err := r.Get(job.ID)
	require.NoError(t, err)
	require.Len(t, got.Logs, 2)

	stamp := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `)
	assert.Regexp(t, stamp, got.Logs[0])
	assert.True(t, got.Logs[0] <= got.Logs[1], "log lines must sort chronologically")
	assert.Contains(t, got.Logs[0], "first")
	assert.Contains(t, got.Logs[1], "second")
}

func TestAppendLog_UnknownIDIsNoOp(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())
	r.AppendLog("missing", "ignored")
}

func TestList_FilterAndProjection(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())

	a := r.Create(models.Python, "secret code", models.Scenario{})
	b := r.Create(models.JavaScript, "other", models.Scenario{})
	require.NoError(t, r.MarkRunning(b.ID))
	require.NoError(t, r.Complete(b.ID, "done"))

	all := r.List(nil)
	assert.Len(t, all, 2)

	completed := models.StatusCompleted
	filtered := r.List(&completed)
	require.Len(t, filtered, 1)
	assert.Equal(t, b.ID, filtered[0].ID)

	queued := models.StatusQueued
	filtered = r.List(&queued)
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)
}

func TestSweep_RemovesOnlyExpiredTerminalJobs(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(t, clock)

	expired := r.Create(models.Python, "x", models.Scenario{})
	require.NoError(t, r.MarkRunning(expired.ID))
	require.NoError(t, r.Complete(expired.ID, "out"))

	active := r.Create(models.Python, "y", models.Scenario{})
	require.NoError(t, r.MarkRunning(active.ID))

	clock.Advance(2 * time.Hour)

	fresh := r.Create(models.Python, "z", models.Scenario{})
	require.NoError(t, r.MarkRunning(fresh.ID))
	require.NoError(t, r.Complete(fresh.ID, "out"))

	removed := r.SweepOnce()
	assert.Equal(t, 1, removed)

	_, err := r.Get(expired.ID)
	assert.ErrorIs(t, err, customErrors.ErrNotFound, "expired terminal job must be swept")

	_, err = r.Get(active.ID)
	assert.NoError(t, err, "a job with no completedAt is never swept")

	_, err = r.Get(fresh.ID)
	assert.NoError(t, err, "recently completed job survives the sweep")
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	r := newTestRegistry(t, newFakeClock())
	job := r.Create(models.Python, "x", models.Scenario{})
	r.AppendLog(job.ID, "one")

	got, err := r.Get(job.ID)
	require.NoError(t, err)
	got.Logs[0] = "tampered"

	fresh, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Contains(t, fresh.Logs[0], "one")
}
