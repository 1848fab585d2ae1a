// Package queue implements vibe2apk's durable job queue on Redis: a
// waiting list, an active set with per-job lease deadlines, and
// time-and-count-bounded completed/failed retention sets. All state
// transitions that must be atomic (claim, retire-with-retention-cap,
// stale-lease reclaim, cancel) run as Lua scripts via redis.Script,
// grounded on the teacher-pack's UniQw-uniqw-go queue runtime.
package queue
