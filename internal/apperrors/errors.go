package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel markers. Every error surfaced to the API server or persisted on a
// task record is wrapped with exactly one of these via Wrap, and classified
// later with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limited")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrToolchain   = errors.New("toolchain error")
	ErrEnvironment = errors.New("environment error")
	ErrInternal    = errors.New("internal error")
)

// Wrap builds an error that includes stage/operation context while tagging
// it with marker for later classification via HTTPStatus/Kind.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}

// HTTPStatus maps an error to the status code the API server should return.
// Errors carrying no recognized marker map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrToolchain), errors.Is(err, ErrEnvironment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine-readable classification for the error, for
// logs and diagnostics. API error bodies do not use it: their "error" field
// carries the HTTP status phrase.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrToolchain):
		return "toolchain_error"
	case errors.Is(err, ErrEnvironment):
		return "environment_error"
	default:
		return "internal_error"
	}
}

// Retryable reports whether a failure of this kind is worth retrying
// automatically. Validation, not-found, and conflict failures never are;
// toolchain/environment/internal failures may be transient.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return false
	default:
		return true
	}
}
