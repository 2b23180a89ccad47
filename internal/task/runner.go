package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Common errors returned by the TaskRunner
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// StatusStore records job status transitions as the runner processes tasks.
// *JobStore implements it.
type StatusStore interface {
	SetStatus(id uuid.UUID, status domain.DatasetStatus, message string) error
}

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	store      StatusStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store StatusStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "task_runner")),
	}
}

// Submit adds a new task to the queue. It returns ErrQueueFull when the
// queue buffer is at capacity and ErrQueueClosed after Stop.
func (r *TaskRunner) Submit(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrQueueClosed
	}

	select {
	case r.taskChan <- task:
		r.logger.Debug("task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(r.taskChan),
			"queue_cap", cap(r.taskChan))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(r.taskChan))
	}
}

// Start launches the worker goroutines.
func (r *TaskRunner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)
}

// Stop rejects further submissions, cancels in-flight tasks, and waits for
// workers to exit.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.taskChan)
	}
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.SetStatus(task.ID(), domain.DatasetStatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	if err := task.Execute(r.ctx); err != nil {
		logger.Error("task execution failed", "error", err)
		if serr := r.store.SetStatus(task.ID(), domain.DatasetStatusFailed, err.Error()); serr != nil {
			logger.Error("failed to update job status to failed", "error", serr)
		}
		return
	}

	logger.Info("task completed")
	if err := r.store.SetStatus(task.ID(), domain.DatasetStatusCompleted, ""); err != nil {
		logger.Error("failed to update job status to completed", "error", err)
	}
}
