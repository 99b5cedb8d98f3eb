package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is; the API layer maps them to HTTP status
// codes.
var (
	// ErrQuizNotFound indicates that the quiz does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// QuizServiceError wraps errors from the quiz service with context.
type QuizServiceError struct {
	// Operation is the operation that failed (e.g., "create_quiz")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for QuizServiceError.
func (e *QuizServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quiz service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("quiz service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *QuizServiceError) Unwrap() error {
	return e.Err
}

// NewQuizServiceError creates a new QuizServiceError.
// It returns known sentinel errors directly without wrapping.
func NewQuizServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrQuizNotFound) || errors.Is(err, ErrNotOwned) {
		return err
	}

	return &QuizServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
