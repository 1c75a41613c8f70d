package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation       = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidUUID      = New("INVALID_UUID", http.StatusBadRequest, "invalid resource ID format")
	ErrEmptyRequestBody = New("EMPTY_REQUEST_BODY", http.StatusBadRequest, "no data provided for update")
	ErrInvalidMedia     = New("INVALID_MEDIA", http.StatusBadRequest, "invalid media payload")
	ErrInvalidType      = New("INVALID_TYPE", http.StatusBadRequest, "media type must be one of files, images, videos, urls")
	ErrInvalidIndex     = New("INVALID_INDEX", http.StatusBadRequest, "index must be a non-negative integer")
	ErrNoFileProvided   = New("NO_FILE_PROVIDED", http.StatusBadRequest, "no file uploaded")
	ErrAuthRequired     = New("AUTHENTICATION_REQUIRED", http.StatusUnauthorized, "authentication required")
	ErrForbidden        = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrResourceNotFound = New("RESOURCE_NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrIndexOutOfRange  = New("INDEX_OUT_OF_RANGE", http.StatusNotFound, "no media entry at that index")
	ErrFileUploadFailed = New("FILE_UPLOAD_FAILED", http.StatusInternalServerError, "failed to upload files")
	ErrInternal         = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error carrying caller-facing detail text.
func WithDetails(err *Error, details string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}
