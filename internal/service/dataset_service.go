// Package service orchestrates dataset generation: it asks the generator
// for records, filters them through the schema's constraints, and writes
// the accepted records to a sink.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/export"
	"github.com/phrazzld/synthgen/internal/generation"
	"github.com/phrazzld/synthgen/internal/registry"
)

// maxRounds bounds how many generation calls one dataset may make when
// constraints keep rejecting records.
const maxRounds = 3

// overRequestFactor asks the model for more records than still needed, to
// cover constraint rejections without an extra round.
const overRequestFactor = 1.5

// SchemaSource resolves schema names to their registered entries. The
// registry implements it; tests substitute fakes.
type SchemaSource interface {
	Get(name string) (registry.Entry, error)
}

// SinkFactory builds the sink a dataset's records are written to. The
// destination may depend on the dataset (e.g. one CSV file per job).
type SinkFactory func(d *domain.Dataset) export.Sink

// DatasetService runs dataset generation jobs.
type DatasetService struct {
	schemas   SchemaSource
	generator generation.Generator
	sinkFor   SinkFactory
	logger    *slog.Logger
}

// NewDatasetService creates a DatasetService. All dependencies are required
// except logger, which defaults to the process logger.
func NewDatasetService(
	schemas SchemaSource,
	generator generation.Generator,
	sinkFor SinkFactory,
	logger *slog.Logger,
) (*DatasetService, error) {
	if schemas == nil {
		return nil, fmt.Errorf("schema source cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if sinkFor == nil {
		return nil, fmt.Errorf("sink factory cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DatasetService{
		schemas:   schemas,
		generator: generator,
		sinkFor:   sinkFor,
		logger:    logger.With(slog.String("component", "dataset_service")),
	}, nil
}

// Run executes one generation job and updates the dataset's accepted and
// rejected counts and destination in place. It generates in rounds until the
// requested count is reached or maxRounds is exhausted; whatever was
// accepted by then is written to the sink.
func (s *DatasetService) Run(ctx context.Context, d *domain.Dataset, instructions string) error {
	entry, err := s.schemas.Get(d.SchemaName)
	if err != nil {
		return err
	}

	accepted := make([]*domain.Record, 0, d.Count)
	rejected := 0

	for round := 1; round <= maxRounds && len(accepted) < d.Count; round++ {
		need := d.Count - len(accepted)
		ask := int(math.Ceil(float64(need) * overRequestFactor))

		s.logger.InfoContext(ctx, "generation round",
			"dataset_id", d.ID.String(),
			"schema", d.SchemaName,
			"round", round,
			"requested", ask)

		records, err := s.generator.GenerateRecords(ctx, entry.Schema, generation.Request{
			Count:        ask,
			Instructions: instructions,
		})
		if err != nil {
			return fmt.Errorf("generating records for schema %q: %w", d.SchemaName, err)
		}

		for _, rec := range records {
			if len(accepted) == d.Count {
				break
			}

			res, err := entry.Constraints.Evaluate(rec)
			if err != nil {
				// An evaluation error means the model produced something a
				// constraint cannot even process; treat it as a rejection.
				s.logger.WarnContext(ctx, "constraint evaluation failed, rejecting record",
					"dataset_id", d.ID.String(),
					"error", err)
				rejected++
				continue
			}
			if !res.Passed {
				s.logger.DebugContext(ctx, "record rejected by constraint",
					"dataset_id", d.ID.String(),
					"field", res.Field)
				rejected++
				continue
			}

			accepted = append(accepted, rec)
		}
	}

	if len(accepted) == 0 {
		return fmt.Errorf("%w: schema %q", ErrNoRecordsAccepted, d.SchemaName)
	}

	sink := s.sinkFor(d)
	if err := sink.Write(ctx, entry.Schema, accepted); err != nil {
		return fmt.Errorf("writing dataset %s: %w", d.ID, err)
	}

	d.Accepted = len(accepted)
	d.Rejected = rejected
	d.Destination = sink.Destination()

	s.logger.InfoContext(ctx, "dataset generation complete",
		"dataset_id", d.ID.String(),
		"schema", d.SchemaName,
		"accepted", d.Accepted,
		"rejected", d.Rejected,
		"destination", d.Destination)

	if d.Accepted < d.Count {
		return fmt.Errorf("%w: accepted %d of %d", ErrGenerationExhausted, d.Accepted, d.Count)
	}
	return nil
}
