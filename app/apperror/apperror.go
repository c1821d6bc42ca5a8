package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation error")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrStaleVersion           = errors.New("stale version")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSigningUnavailable     = errors.New("signing unavailable")
	ErrCredentialInvalid      = errors.New("credential invalid")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// StaleVersion signals a lost optimistic-concurrency race. The caller should
// refetch the record and retry with the current version.
func StaleVersion(expected, current int64) *AppError {
	return &AppError{
		Err:     ErrStaleVersion,
		Message: fmt.Sprintf("stale version: expected %d, current %d", expected, current),
	}
}

func InvalidStateTransition(status string) *AppError {
	return &AppError{
		Err:     ErrInvalidStateTransition,
		Message: fmt.Sprintf("activity is already %s", status),
	}
}

func SigningUnavailable() *AppError {
	return &AppError{
		Err:     ErrSigningUnavailable,
		Message: "signing key is not loaded",
	}
}

func CredentialInvalid(activityID string) *AppError {
	return &AppError{
		Err:     ErrCredentialInvalid,
		Message: fmt.Sprintf("credential signature mismatch for activity %s", activityID),
	}
}
