package core

import (
	"errors"
	"net/http"
)

// ErrorKind is the explicit error class a service error carries.
// Route handlers and the central HTTP error handler dispatch on the kind,
// never on the message text.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindRateLimited
	KindUnprocessable
	KindExternalService
	KindAlreadyExists
)

// APIError is a tagged service error
type APIError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Code returns the wire error code of the v1 envelope
func (e *APIError) Code() string {
	switch e.Kind {
	case KindValidation, KindAlreadyExists:
		return "VALIDATION_ERROR"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindUnprocessable:
		return "UNPROCESSABLE"
	case KindExternalService:
		return "EXTERNAL_SERVICE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus returns the external status for the kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindAlreadyExists:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindExternalService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, cause error) *APIError {
	return &APIError{Kind: kind, Message: message, cause: cause}
}

func NewErrorNotFound(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

func NewErrorAlreadyExists(message string) *APIError {
	return &APIError{Kind: KindAlreadyExists, Message: message}
}

func NewErrorUnauthorized(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: message}
}

func NewErrorValidation(message string) *APIError {
	return &APIError{Kind: KindValidation, Message: message}
}

// AsAPIError extracts the tagged error, defaulting to KindInternal
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Kind: KindInternal, Message: "internal error", cause: err}
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
