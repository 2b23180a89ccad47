package export

import "errors"

// Common errors returned by the export package.
var (
	// ErrSchemaMismatch is returned when a record's field set disagrees with
	// the schema: a declared field is missing or an undeclared one is present.
	// The write is aborted before any row reaches the destination.
	ErrSchemaMismatch = errors.New("record does not match schema")

	// ErrRender is returned when a field value's runtime type disagrees with
	// its declared kind, e.g. a list field holding a scalar.
	ErrRender = errors.New("cannot render field value")

	// ErrNoSchema is returned when a sink is invoked without a schema.
	ErrNoSchema = errors.New("schema cannot be nil")
)
