// Package server provides the HTTP REST API for the lead enricher.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hunter/lead-enricher/internal/session"
	"github.com/hunter/lead-enricher/internal/types"
)

// ErrMissingKey indicates a required upstream API key is not configured
type ErrMissingKey struct {
	Key string
}

func (e *ErrMissingKey) Error() string {
	return fmt.Sprintf("required API key not configured: %s", e.Key)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBadUpload indicates the uploaded file could not be used
type ErrBadUpload struct {
	Message string
	Cause   error
}

func (e *ErrBadUpload) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upload error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upload error: %s", e.Message)
}

func (e *ErrBadUpload) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *session.ErrNotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var invalidTransition *session.ErrInvalidTransition
	if errors.As(err, &invalidTransition) {
		return http.StatusConflict
	}

	var missingKey *ErrMissingKey
	if errors.As(err, &missingKey) {
		return http.StatusFailedDependency
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		return http.StatusBadRequest
	}

	switch err.(type) {
	case *session.ErrNoTable, *session.ErrNoMapping,
		*session.ErrNotScraped, *session.ErrContextNotApproved,
		*session.ErrBusy:
		return http.StatusConflict
	case *session.ErrEmptyDescription:
		return http.StatusBadRequest
	case *ErrValidation, *ErrBadUpload, *types.MappingError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
