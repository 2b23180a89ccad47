// Package task provides in-process background execution of dataset
// generation jobs: a bounded queue, a worker pool, and an in-memory job
// store for status lookups.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeDatasetGeneration identifies dataset generation jobs.
	TaskTypeDatasetGeneration = "dataset_generation"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the task's unique identifier.
	ID() uuid.UUID

	// Type returns the task type identifier.
	Type() string

	// Execute runs the task logic.
	Execute(ctx context.Context) error
}
