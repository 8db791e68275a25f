package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/application/pipeline"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder es un RunStorage + Notifier en memoria.
type recorder struct {
	mu       sync.Mutex
	started  []domain.Run
	steps    []domain.StepResult
	finished map[string]domain.RunStatus
	notified []domain.Run
	startErr error
}

func newRecorder() *recorder {
	return &recorder{finished: make(map[string]domain.RunStatus)}
}

func (r *recorder) StartRun(_ context.Context, run domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, run)
	return nil
}

func (r *recorder) SaveStep(_ context.Context, _ string, step domain.StepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
	return nil
}

func (r *recorder) FinishRun(_ context.Context, id string, status domain.RunStatus, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[id] = status
	return nil
}

func (r *recorder) RecentRuns(context.Context, int) ([]domain.Run, error) { return r.started, nil }
func (r *recorder) Close() error { return nil }

func (r *recorder) NotifyRun(_ context.Context, run domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, run)
	return nil
}

func task(name string, order *[]string, err error) pipeline.Task {
	return pipeline.Task{
		Name:    name,
		Message: "Running " + name + "...",
		Run: func(context.Context) (domain.StepResult, error) {
			*order = append(*order, name)
			return domain.StepResult{Updated: 1}, err
		},
	}
}

func TestRunner_RunsInOrder(t *testing.T) {
	rec := newRecorder()
	var order []string
	r := pipeline.New(pipeline.Config{}, rec, rec)

	run, err := r.Run(context.Background(), []pipeline.Task{
		task("a", &order, nil),
		task("b", &order, nil),
		task("c", &order, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, domain.StatusOK, run.Status)
	require.Len(t, run.Steps, 3)
	assert.Equal(t, "b", run.Steps[1].Step)
	assert.Equal(t, domain.StatusOK, run.Steps[1].Status)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	_, err = uuid.Parse(run.ID)
	assert.NoError(t, err)

	require.Len(t, rec.started, 1)
	assert.Equal(t, run.ID, rec.started[0].ID)
	assert.Len(t, rec.steps, 3)
	assert.Equal(t, domain.StatusOK, rec.finished[run.ID])
	require.Len(t, rec.notified, 1)
	assert.Equal(t, domain.StatusOK, rec.notified[0].Status)
}

func TestRunner_FailFast(t *testing.T) {
	rec := newRecorder()
	var order []string
	boom := errors.New("boom")
	r := pipeline.New(pipeline.Config{}, rec, rec)

	run, err := r.Run(context.Background(), []pipeline.Task{
		task("a", &order, nil),
		task("b", &order, boom),
		task("c", &order, nil),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "pipeline.Run: b: boom")

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, domain.StatusFailed, run.Status)
	require.Len(t, run.Steps, 2)
	assert.Equal(t, domain.StatusFailed, run.Steps[1].Status)
	assert.Equal(t, "boom", run.Steps[1].Err)
	assert.Equal(t, domain.StatusFailed, rec.finished[run.ID])
	assert.Len(t, rec.notified, 1)
}

func TestRunner_DelayBetweenSteps(t *testing.T) {
	var order []string
	r := pipeline.New(pipeline.Config{Delay: 40 * time.Millisecond}, nil, nil)

	start := time.Now()
	_, err := r.Run(context.Background(), []pipeline.Task{
		task("a", &order, nil),
		task("b", &order, nil),
		task("c", &order, nil),
	})
	require.NoError(t, err)

	// dos pausas: ninguna después del último paso
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRunner_CancelDuringDelay(t *testing.T) {
	rec := newRecorder()
	var order []string
	ctx, cancel := context.WithCancel(context.Background())
	r := pipeline.New(pipeline.Config{Delay: time.Hour}, rec, rec)

	first := pipeline.Task{Name: "a", Run: func(context.Context) (domain.StepResult, error) {
		order = append(order, "a")
		cancel()
		return domain.StepResult{}, nil
	}}

	run, err := r.Run(ctx, []pipeline.Task{first, task("b", &order, nil)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Equal(t, domain.StatusFailed, rec.finished[run.ID], "history is written even after cancel")
}

func TestRunner_StorageFailureDoesNotStopPipeline(t *testing.T) {
	rec := newRecorder()
	rec.startErr = errors.New("disk full")
	var order []string

	run, err := pipeline.New(pipeline.Config{}, rec, nil).Run(context.Background(), []pipeline.Task{
		task("a", &order, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, run.Status)
	assert.Empty(t, rec.steps)
	assert.Empty(t, rec.finished)
}

func TestRunner_StepNameFromResult(t *testing.T) {
	r := pipeline.New(pipeline.Config{}, nil, nil)
	run, err := r.Run(context.Background(), []pipeline.Task{{
		Name: "task-name",
		Run: func(context.Context) (domain.StepResult, error) {
			return domain.StepResult{Step: "own-name"}, nil
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, "own-name", run.Steps[0].Step)
}

func TestRunner_NoTasks(t *testing.T) {
	run, err := pipeline.New(pipeline.Config{}, nil, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, run.Status)
	assert.Empty(t, run.Steps)
}
