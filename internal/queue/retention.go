package queue

import "time"

// Queue-backend retention: how long a terminal job's record survives, and
// the entry-count cap enforced independently of age. Distinct from artifact
// (file) retention, which config.FileRetention governs.
const (
	CompletedRetention = 24 * time.Hour
	FailedRetention    = 7 * 24 * time.Hour
	RetentionCap       = 1000

	// DefaultLeaseTTL bounds how long a worker may hold an active lease
	// before the worker pool's stale-lease reclaimer fails the job. It should
	// comfortably exceed the longest realistic build (Gradle assembly can
	// run several minutes); the ceiling exists to recover from crashed
	// workers, not to bound normal build time.
	DefaultLeaseTTL = 20 * time.Minute
)
