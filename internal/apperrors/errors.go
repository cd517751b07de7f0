package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrFetch indicates a transport failure while talking to the upstream rate feed.
// Errors matching it are retryable.
var ErrFetch = errors.New("rate feed fetch failed")

// ErrParse indicates a malformed record in the upstream rate feed.
var ErrParse = errors.New("rate feed record malformed")

// ErrStorage indicates a persistence failure.
var ErrStorage = errors.New("storage failure")

// ErrSyncInProgress is returned when a sync cycle is requested while another one is running.
var ErrSyncInProgress = errors.New("rate sync already in progress")

// ErrSyncStopped is returned when a sync cycle is requested after the sync service was stopped.
var ErrSyncStopped = errors.New("rate sync stopped")

// AppError carries an HTTP-ish status code alongside a message and the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewNotFoundError returns an AppError wrapping ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewValidationError returns an AppError wrapping ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

// FetchError describes a failed request against the upstream feed.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// NewFetchError creates a FetchError.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ParseError describes one feed cell that could not be turned into a rate.
type ParseError struct {
	Date     string
	Currency string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse rate date=%q currency=%q: %s", e.Date, e.Currency, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StorageError wraps an error raised by the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError creates a StorageError for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
