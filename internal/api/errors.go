package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/portrait-generator/internal/api/shared"
	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/events"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/portrait"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"github.com/phrazzld/portrait-generator/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSubjectName),
		errors.Is(err, domain.ErrInvalidStyle),
		errors.Is(err, portrait.ErrNoSubjects),
		errors.Is(err, task.ErrInvalidTaskID):
		return http.StatusBadRequest

	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	case errors.Is(err, generation.ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, events.ErrNoHandlers):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)

	// Domain validation messages describe the caller's input only.
	case errors.Is(err, domain.ErrInvalidSubjectName),
		errors.Is(err, domain.ErrInvalidStyle),
		errors.Is(err, domain.ErrValidation):
		return capitalize(err.Error())

	case errors.Is(err, portrait.ErrNoSubjects):
		return "Subject list cannot be empty"
	case errors.Is(err, task.ErrInvalidTaskID):
		return "Invalid job ID"
	case errors.Is(err, storage.ErrNotFound):
		return "Portrait not found"
	case errors.Is(err, task.ErrTaskNotFound):
		return "Job not found"
	case errors.Is(err, generation.ErrContentBlocked):
		return "The request was blocked by the model's content policy"
	case errors.Is(err, generation.ErrRateLimited):
		return "Rate limited by model provider, try again later"
	case errors.Is(err, task.ErrQueueFull):
		return "Job queue is full, try again later"
	case errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, events.ErrNoHandlers):
		return "Background jobs are not available"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "must be one of BW, Sepia, Color, Painting"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and message for err. A non-empty
// fallback replaces the generic message of unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
