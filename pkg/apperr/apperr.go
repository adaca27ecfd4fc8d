// Package apperr defines the application error taxonomy shared by all
// services: validation failures, missing resources, uniqueness conflicts,
// and upstream service failures. The HTTP layer maps each kind to a status
// code; nothing below the HTTP layer recovers from them.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// ValidationError reports an aggregate invariant violated at construction
// or update time. Field names the offending field when known.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation creates a ValidationError for the given field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a required resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NotFound creates a NotFoundError for the given resource and identifier.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError reports a uniqueness conflict on a resource key.
type AlreadyExistsError struct {
	Resource string
	Key      string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}

// AlreadyExists creates an AlreadyExistsError for the given resource and key.
func AlreadyExists(resource, key string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Key: key}
}

// ExternalServiceError reports a failed call to an upstream collaborator
// (stock, payment). The underlying error is wrapped unchanged; no retry or
// circuit breaking happens below the HTTP layer.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// External wraps err as an ExternalServiceError for the named service.
func External(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAlreadyExists reports whether err carries an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var e *AlreadyExistsError
	return errors.As(err, &e)
}

// IsExternal reports whether err carries an ExternalServiceError.
func IsExternal(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e)
}

// HTTPStatus returns the HTTP status code for the given error: 400 for
// validation, 404 for not found, 409 for conflicts, 502 for upstream
// failures, 500 otherwise.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsExternal(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
