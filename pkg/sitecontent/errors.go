package sitecontent

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types
var (
	// ErrNotFound indicates a row or object was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadySubscribed indicates the email is already an active subscriber
	ErrAlreadySubscribed = errors.New("email is already subscribed")

	// ErrInvalidBlobURL indicates a URL does not point into the configured bucket
	ErrInvalidBlobURL = errors.New("invalid URL for this bucket")

	// ErrNoFilter indicates an update or delete that would touch every row
	ErrNoFilter = errors.New("no filter given")
)

// ConfigurationError reports required configuration values that are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("storage is not configured: missing %s", strings.Join(e.Missing, ", "))
}

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing row or object with a message fit for
// callers. It matches ErrNotFound.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransientIOError represents a failed network or storage operation that is
// safe to retry.
type TransientIOError struct {
	Op  string
	Key string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *TransientIOError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var tErr *TransientIOError
	return errors.As(err, &tErr)
}

// StatusCode maps err onto an HTTP status code.
func StatusCode(err error) int {
	var (
		cfgErr *ConfigurationError
		valErr *ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &valErr), errors.Is(err, ErrInvalidBlobURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadySubscribed):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
