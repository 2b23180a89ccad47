package generation

import (
	"context"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Request describes one generation call: how many records to produce and any
// extra instructions appended to the prompt.
type Request struct {
	// Count is the number of records to ask the model for. Must be positive.
	Count int

	// Instructions is optional free-text guidance added to the prompt, e.g.
	// "amounts should skew small" for a transaction schema.
	Instructions string
}

// Generator defines the interface for generating synthetic records from a
// schema. This interface serves as a boundary between the application core
// and external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// GenerateRecords produces records conforming to the schema using the
	// schema's few-shot examples. It returns the records the model produced
	// (which may be fewer than requested) or an error if generation fails
	// (see errors.go for specific types).
	GenerateRecords(ctx context.Context, schema *domain.Schema, req Request) ([]*domain.Record, error)
}
