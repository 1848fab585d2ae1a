package apiserver

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"vibe2apk/internal/apperrors"
)

// writeJSON encodes payload as the response body with the JSON content type
// spec.md §6 requires ("application/json; charset=utf-8"). Grounded on the
// teacher's apiServer.writeJSON, swapping encoding/json for the sonic codec
// internal/queue already standardizes on.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}

// errorBody is the wire shape for every JSON error response: {error,
// message}, per spec.md §6.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// writeError writes {error, message} with error set to the canonical phrase
// for status (e.g. "Bad Request"), matching spec.md §6's known error-value
// table exactly; apperrors.Kind's snake_case classification is for logs, not
// this wire field.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: http.StatusText(status), Message: message})
}

// writeRateLimited writes the 429 shape with the extra retryAfter field the
// upload contract requires.
func writeRateLimited(w http.ResponseWriter, retryAfterSeconds int) {
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error:      http.StatusText(http.StatusTooManyRequests),
		Message:    "rate limit exceeded, try again later",
		RetryAfter: retryAfterSeconds,
	})
}

// writeAppError classifies err via apperrors and writes the matching status.
func writeAppError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

// statusForError adapts apperrors.HTTPStatus to the API's wire contract.
// apperrors.ErrConflict maps to 409 for internal classification purposes,
// but spec.md §7 puts "DELETE on active job" at 400, and §6's known error
// values list has no "Conflict" entry at all — so any apperrors.ErrConflict
// passed to writeAppError collapses to Bad Request on the wire. (The cancel
// handler writes its own 400 for queue.ErrActiveConflict.)
func statusForError(err error) int {
	if errors.Is(err, apperrors.ErrConflict) {
		return http.StatusBadRequest
	}
	return apperrors.HTTPStatus(err)
}
