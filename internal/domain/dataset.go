package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Dataset-specific validation errors
var (
	// ErrDatasetIDEmpty is returned when a dataset ID is empty or nil.
	ErrDatasetIDEmpty = errors.New("dataset ID cannot be empty")

	// ErrDatasetSchemaEmpty is returned when a dataset names no schema.
	ErrDatasetSchemaEmpty = errors.New("dataset schema name cannot be empty")

	// ErrDatasetCountInvalid is returned when the requested record count is
	// zero or negative.
	ErrDatasetCountInvalid = errors.New("dataset record count must be positive")
)

// DatasetStatus represents the lifecycle state of a generation job.
type DatasetStatus string

// Possible dataset status values.
const (
	DatasetStatusPending    DatasetStatus = "pending"
	DatasetStatusProcessing DatasetStatus = "processing"
	DatasetStatusCompleted  DatasetStatus = "completed"
	DatasetStatusFailed     DatasetStatus = "failed"
)

// Dataset represents one synthetic-data generation job: which schema to
// generate against, how many records were requested, and, once the job has
// run, how many generated records the constraints accepted or rejected and
// where the result was written.
type Dataset struct {
	ID          uuid.UUID     `json:"id"`
	SchemaName  string        `json:"schema_name"`
	Count       int           `json:"count"`
	Accepted    int           `json:"accepted"`
	Rejected    int           `json:"rejected"`
	Destination string        `json:"destination,omitempty"`
	Status      DatasetStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewDataset creates a pending Dataset for the named schema. It generates a
// new UUID and sets UTC timestamps. Returns an error if validation fails.
func NewDataset(schemaName string, count int) (*Dataset, error) {
	now := time.Now().UTC()
	d := &Dataset{
		ID:         uuid.New(),
		SchemaName: schemaName,
		Count:      count,
		Status:     DatasetStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate checks if the Dataset has valid data.
func (d *Dataset) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDatasetIDEmpty
	}

	if d.SchemaName == "" {
		return ErrDatasetSchemaEmpty
	}

	if d.Count <= 0 {
		return ErrDatasetCountInvalid
	}

	return nil
}
