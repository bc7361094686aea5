package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Duplicate  bool
	RetryAfter int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewDuplicate reports a submission rejected because an equivalent record exists.
func NewDuplicate(message string) error {
	return &DomainError{
		Code:       "DUPLICATE",
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Duplicate:  true,
	}
}

// NewRateLimited reports a rate-limit rejection with a retry hint in seconds.
func NewRateLimited(retryAfter int) error {
	return &DomainError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

func NewNotFound(message string) error {
	return NewDomainError("NOT_FOUND", message, http.StatusNotFound, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewStoreFailure hides a backend failure behind a generic message. err is kept for logging only.
func NewStoreFailure(message string, err error) error {
	return &DomainError{
		Code:       "STORE_FAILURE",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
