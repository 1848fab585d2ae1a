// Package apperrors defines vibe2apk's error taxonomy: a small set of
// sentinel markers, a Wrap helper that attaches stage/operation context
// while preserving errors.Is matching, and a mapping from marker to HTTP
// status / queue failure kind for the API server and job records.
package apperrors
