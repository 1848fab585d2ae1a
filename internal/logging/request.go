package logging

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder captures the status code written by a handler so the
// request logger can emit one coalesced line after the response completes.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.status = http.StatusOK
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// RequestLogger wraps next with a middleware that logs exactly one line per
// HTTP response: method, path, status, and duration.
func RequestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		} else if rec.status >= 400 {
			level = slog.LevelWarn
		}

		WithContext(r.Context(), logger).Log(r.Context(), level, "http request",
			slog.String(FieldMethod, r.Method),
			slog.String(FieldPath, r.URL.Path),
			slog.Int(FieldStatus, rec.status),
			slog.Duration(FieldDuration, time.Since(start)),
		)
	})
}

// MaskURL replaces embedded credentials in a connection URL ("user:pass@")
// with "***" so it is safe to place in a log line.
func MaskURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	scheme := strings.Index(trimmed, "://")
	at := strings.LastIndex(trimmed, "@")
	if scheme < 0 || at < 0 || at < scheme {
		return trimmed
	}
	return trimmed[:scheme+3] + "***" + trimmed[at:]
}
