package export

import (
	"context"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Sink persists a batch of schema-conforming records to one destination.
// Implementations overwrite any pre-existing content at the destination;
// they never append or merge.
type Sink interface {
	// Write persists the records in order. It must be all-or-nothing with
	// respect to schema mismatches: no partial output may remain when a
	// record fails conformance checks.
	Write(ctx context.Context, schema *domain.Schema, records []*domain.Record) error

	// Destination describes where the sink writes, for job reporting.
	Destination() string
}
