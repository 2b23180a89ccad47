package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrSchemaNotFound),
		errors.Is(err, domain.ErrDatasetNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrDatasetCountInvalid):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// given error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrSchemaNotFound):
		return "Schema not found"

	case errors.Is(err, domain.ErrDatasetNotFound):
		return "Dataset not found"

	case errors.Is(err, domain.ErrDatasetCountInvalid):
		return "Invalid record count"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid dataset ID"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid request"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Service is busy, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes an error response for err, mapping it to a status
// code and a safe client message. A non-empty userMessage overrides the
// mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError converts validator error text into a short
// user-facing message without echoing internal struct names.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Format: "Key: 'CreateDatasetRequest.Count' Error:Field validation for 'Count' failed on the 'min' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "value too small"
	case "max":
		return "value too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
