package errs

import (
	"errors"
	"net/http"
)

type ErrorMessage struct {
	Message string
	Err     error
}

func (e *ErrorMessage) Error() string { return e.Message }

func (e *ErrorMessage) Unwrap() error { return e.Err }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

type UnauthorizedError struct {
	ErrorMessage
}

// ExternalServiceError reports a failed call to the backend or another remote
// source. Transient errors are worth retrying later.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Status    int
	Transient bool
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

// Validation wraps a sentinel so errors.Is still matches it.
func Validation(err error) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: err.Error(), Err: err},
	}
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

// NewExternalServiceError builds the error for a failed call. Status is the
// HTTP status received, or 0 when no response arrived.
func NewExternalServiceError(service string, status int, err error) *ExternalServiceError {
	msg := service + " unavailable"
	if err != nil {
		msg = service + ": " + err.Error()
	}
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: msg, Err: err},
		Service:      service,
		Status:       status,
		Transient:    status == 0 || status == http.StatusTooManyRequests || status >= 500,
	}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsUnauthorized(err error) bool {
	var v *UnauthorizedError
	return errors.As(err, &v)
}

func IsUnavailable(err error) bool {
	var v *ExternalServiceError
	return errors.As(err, &v)
}
