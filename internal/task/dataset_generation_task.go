package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Common errors
var (
	ErrNilDataset = errors.New("dataset cannot be nil")
	ErrNilService = errors.New("dataset service cannot be nil")
	ErrNilStore   = errors.New("job store cannot be nil")
	ErrNilLogger  = errors.New("logger cannot be nil")
)

// DatasetRunner runs one dataset generation job end to end. The service
// layer implements it; tests substitute fakes.
type DatasetRunner interface {
	Run(ctx context.Context, d *domain.Dataset, instructions string) error
}

// JobRecorder persists job results. *JobStore implements it.
type JobRecorder interface {
	Record(d *domain.Dataset)
}

// DatasetGenerationTask implements the Task interface for generating one
// dataset in the background.
type DatasetGenerationTask struct {
	dataset      *domain.Dataset
	instructions string
	service      DatasetRunner
	store        JobRecorder
	logger       *slog.Logger
}

// NewDatasetGenerationTask creates a dataset generation task.
func NewDatasetGenerationTask(
	dataset *domain.Dataset,
	instructions string,
	service DatasetRunner,
	store JobRecorder,
	logger *slog.Logger,
) (*DatasetGenerationTask, error) {
	if dataset == nil {
		return nil, ErrNilDataset
	}
	if service == nil {
		return nil, ErrNilService
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &DatasetGenerationTask{
		dataset:      dataset,
		instructions: instructions,
		service:      service,
		store:        store,
		logger: logger.With(
			"task_type", TaskTypeDatasetGeneration,
			"dataset_id", dataset.ID.String(),
		),
	}, nil
}

// ID returns the task's unique identifier, which is the dataset ID.
func (t *DatasetGenerationTask) ID() uuid.UUID {
	return t.dataset.ID
}

// Type returns the task type identifier
func (t *DatasetGenerationTask) Type() string {
	return TaskTypeDatasetGeneration
}

// Execute runs the generation job and records the resulting counts and
// destination in the job store. Partial results are recorded even when the
// run ends in an error, so a failed job still reports what was written.
func (t *DatasetGenerationTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("task cancelled: %w", err)
	}

	t.logger.Info("starting dataset generation",
		"schema", t.dataset.SchemaName,
		"count", t.dataset.Count)

	err := t.service.Run(ctx, t.dataset, t.instructions)

	t.store.Record(t.dataset)

	if err != nil {
		return fmt.Errorf("generating dataset %s: %w", t.dataset.ID, err)
	}
	return nil
}
