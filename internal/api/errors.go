package api

import (
	"errors"
	"net/http"

	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/service"
	"github.com/quizard-app/quizard-api/internal/service/auth"
	"github.com/quizard-app/quizard-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, store.ErrQuizNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrSlugExists):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidDistribution),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Raw error strings never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not have access to this quiz"

	case errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, store.ErrQuizNotFound):
		return "Quiz not found"

	case errors.Is(err, store.ErrSlugExists):
		return "A quiz with this slug already exists"

	case errors.Is(err, domain.ErrInvalidDistribution):
		return "Invalid question distribution"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
