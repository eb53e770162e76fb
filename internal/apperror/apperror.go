// Package apperror defines the error taxonomy shared by the repository,
// service and handler layers.
//
// Every error that should reach a client as something other than a generic
// 500 is an *AppError. The Err field holds one of the sentinels below so that
// callers can branch with errors.Is without caring about the message text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransaction  = errors.New("transaction failed")
)

type AppError struct {
	Err     error  // sentinel (or a chain of sentinels)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports that a write would violate a uniqueness rule.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized is used when credentials are rejected by business logic
// (as opposed to the bearer middleware, which answers on its own).
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// TransactionFailed marks an error that aborted a multi-statement
// transaction. The cause stays in the chain, so a rolled back termination
// of a missing user matches both ErrTransaction and ErrNotFound.
func TransactionFailed(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransaction, cause),
		Message: fmt.Sprintf("transaction rolled back: %v", cause),
	}
}
