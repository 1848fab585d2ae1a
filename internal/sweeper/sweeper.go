package sweeper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vibe2apk/internal/logging"
	"vibe2apk/internal/metrics"
)

// Sweeper periodically removes builds-root entries whose mtime exceeds
// Retention. Failures on individual entries are logged and skipped; a
// single bad entry never aborts the pass.
type Sweeper struct {
	BuildsDir string
	Retention time.Duration
	Interval  time.Duration
	Logger    *slog.Logger
}

// New constructs a Sweeper.
func New(buildsDir string, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{BuildsDir: buildsDir, Retention: retention, Interval: interval, Logger: logger}
}

// Run performs an initial sweep immediately, then repeats every Interval
// until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	removed, err := s.Sweep()
	if err != nil {
		s.Logger.Warn("sweep failed", logging.Error(err))
		return
	}
	if removed > 0 {
		s.Logger.Info("sweep removed expired artifacts", slog.Int("removed", removed))
		metrics.SweptArtifactsTotal.Add(float64(removed))
	}
}

// Sweep runs one pass and returns the number of entries removed.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.BuildsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-s.Retention)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			s.Logger.Warn("sweep stat failed", slog.String("entry", entry.Name()), logging.Error(err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.BuildsDir, entry.Name())
		if removeErr := os.RemoveAll(path); removeErr != nil {
			s.Logger.Warn("sweep remove failed", slog.String("entry", entry.Name()), logging.Error(removeErr))
			continue
		}
		removed++
	}
	return removed, nil
}
