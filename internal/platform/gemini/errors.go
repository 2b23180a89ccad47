package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrNilSchema is returned when GenerateRecords is called without a schema.
	ErrNilSchema = errors.New("schema cannot be nil")

	// ErrInvalidCount is returned when a non-positive record count is requested.
	ErrInvalidCount = errors.New("record count must be positive")
)
