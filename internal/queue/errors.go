package queue

import "errors"

var (
	// ErrNotFound is returned when a task id has no record.
	ErrNotFound = errors.New("queue: task not found")
	// ErrActiveConflict is returned when an operation (cancel) is rejected
	// because the task currently holds an active lease.
	ErrActiveConflict = errors.New("queue: task is active")
)
