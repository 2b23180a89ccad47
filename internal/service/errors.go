package service

import "errors"

// Common errors returned by the service layer.
var (
	// ErrNoRecordsAccepted is returned when constraint filtering rejected
	// every record the generator produced.
	ErrNoRecordsAccepted = errors.New("no generated records passed constraints")

	// ErrGenerationExhausted is returned when repeated generation rounds
	// could not produce the requested number of accepted records.
	ErrGenerationExhausted = errors.New("generation rounds exhausted before reaching requested count")
)
