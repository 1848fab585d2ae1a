package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"vibe2apk/internal/config"
)

// acquireProcessLock takes an exclusive, non-blocking file lock so that two
// "serve" (or two "worker") invocations never run against the same
// BuildsDir at once, grounded on the teacher's internal/daemon.Daemon lock
// acquired at Start and released at Stop.
func acquireProcessLock(cfg *config.Config, name string) (*flock.Flock, error) {
	lockPath := filepath.Join(cfg.BuildsDir, fmt.Sprintf(".vibe2apk-%s.lock", name))
	lock := flock.New(lockPath)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire %s lock at %s: %w", name, lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("another %s process is already running (lock held at %s)", name, lockPath)
	}
	return lock, nil
}
