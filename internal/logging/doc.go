// Package logging provides vibe2apk's structured logger: a log/slog logger
// with a human-readable console handler and a JSON handler, selected by
// configuration, plus a small set of context-carried fields (trace id, task
// id) that every stage and request handler attaches consistently.
package logging
