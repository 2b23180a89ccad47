package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/synthgen/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTask signals on done when executed and returns a scripted error.
type stubTask struct {
	id   uuid.UUID
	err  error
	done chan struct{}
}

func newStubTask(err error) *stubTask {
	return &stubTask{id: uuid.New(), err: err, done: make(chan struct{})}
}

func (s *stubTask) ID() uuid.UUID { return s.id }
func (s *stubTask) Type() string  { return "stub" }

func (s *stubTask) Execute(ctx context.Context) error {
	defer close(s.done)
	return s.err
}

func waitDone(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed in time")
	}
}

// waitStatus polls the store until the job leaves the processing state.
func waitStatus(t *testing.T, store *JobStore, id uuid.UUID) domain.DatasetStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d, err := store.Get(id)
		require.NoError(t, err)
		if d.Status == domain.DatasetStatusCompleted || d.Status == domain.DatasetStatusFailed {
			return d.Status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return ""
}

func seedJob(t *testing.T, store *JobStore, id uuid.UUID) {
	t.Helper()
	d, err := domain.NewDataset("transaction", 1)
	require.NoError(t, err)
	d.ID = id
	store.Put(d)
}

func TestRunnerExecutesSubmittedTask(t *testing.T) {
	store := NewJobStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: 1, QueueSize: 4}, testLogger())
	runner.Start()
	defer runner.Stop()

	task := newStubTask(nil)
	seedJob(t, store, task.id)

	require.NoError(t, runner.Submit(task))
	waitDone(t, task.done)

	assert.Equal(t, domain.DatasetStatusCompleted, waitStatus(t, store, task.id))
}

func TestRunnerRecordsFailure(t *testing.T) {
	store := NewJobStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: 1, QueueSize: 4}, testLogger())
	runner.Start()
	defer runner.Stop()

	task := newStubTask(errors.New("model unavailable"))
	seedJob(t, store, task.id)

	require.NoError(t, runner.Submit(task))
	waitDone(t, task.done)

	assert.Equal(t, domain.DatasetStatusFailed, waitStatus(t, store, task.id))
	d, err := store.Get(task.id)
	require.NoError(t, err)
	assert.Equal(t, "model unavailable", d.Error)
}

func TestRunnerQueueFull(t *testing.T) {
	store := NewJobStore()
	// No workers started, so the buffer fills up.
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, testLogger())

	require.NoError(t, runner.Submit(newStubTask(nil)))
	err := runner.Submit(newStubTask(nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRunnerSubmitAfterStop(t *testing.T) {
	store := NewJobStore()
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: 1, QueueSize: 4}, testLogger())
	runner.Start()
	runner.Stop()

	err := runner.Submit(newStubTask(nil))
	assert.ErrorIs(t, err, ErrQueueClosed)
}
