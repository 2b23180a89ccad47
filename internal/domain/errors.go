// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrSchemaNotFound is returned when a named schema is not registered.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrDatasetNotFound is returned when a dataset job does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")
)
