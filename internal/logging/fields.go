package logging

import (
	"context"
	"log/slog"
)

// Field name constants used consistently across the API server, worker pool,
// and pipeline stages. Naming and the nil-safe Error helper are grounded on
// the teacher's internal/logging/attrs.go.
const (
	FieldTrace     = "trace"
	FieldTaskID    = "task_id"
	FieldApp       = "app"
	FieldType      = "type" // build kind: html | zip
	FieldStage     = "stage"
	FieldDuration  = "duration"
	FieldSize      = "size"
	FieldAPKSize   = "apk_size"
	FieldSuccess   = "success"
	FieldEventType = "event_type"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldRemoteIP  = "remote_ip"
)

// Error returns a nil-safe slog.Attr for an error value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

type ctxKey int

const (
	ctxKeyTrace ctxKey = iota
	ctxKeyTaskID
)

// WithTrace attaches a trace id to ctx for later retrieval by ContextFields.
func WithTrace(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, ctxKeyTrace, trace)
}

// WithTaskID attaches a task id to ctx for later retrieval by ContextFields.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, ctxKeyTaskID, taskID)
}

// TraceFrom returns the trace id stored in ctx, if any.
func TraceFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyTrace).(string)
	return v, ok
}

// TaskIDFrom returns the task id stored in ctx, if any.
func TaskIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyTaskID).(string)
	return v, ok
}

// ContextFields extracts the trace/task attributes carried on ctx, in a
// stable order suitable for passing to slog.Logger.With.
func ContextFields(ctx context.Context) []any {
	var attrs []any
	if trace, ok := TraceFrom(ctx); ok && trace != "" {
		attrs = append(attrs, slog.String(FieldTrace, trace))
	}
	if taskID, ok := TaskIDFrom(ctx); ok && taskID != "" {
		attrs = append(attrs, slog.String(FieldTaskID, taskID))
	}
	return attrs
}

// WithContext returns a logger augmented with any trace/task fields found on
// ctx, falling back to a no-op logger when base is nil.
func WithContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.New(slog.DiscardHandler)
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
