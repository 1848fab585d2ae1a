package pipeline

import (
	"context"
	"errors"
	"fmt"

	"vibe2apk/internal/apperrors"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/toolexec"
)

// stageFailure turns a known, expected pipeline failure into a logical
// Result rather than a worker error, per stage.Handler's contract: a build
// that failed for a reason the pipeline itself understood is still a
// completed task, just an unsuccessful one. Context cancellation and
// deadline errors are propagated unwrapped as worker errors: the worker pool
// leaves a cancelled task's lease to lapse (the reclaimer then fails it) and
// marks a task failed outright on a deadline error.
func stageFailure(marker error, stageName, operation string, err error) (queue.Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return queue.Result{}, err
	}
	wrapped := apperrors.Wrap(marker, stageName, operation, "", err)
	return queue.Result{Success: false, Error: wrapped.Error()}, nil
}

// requireSuccess turns a non-zero external command exit into a toolchain
// error, matching spec.md §4.5.10: "Any command failure surfaces as the
// stage's error; no partial success is accepted."
func requireSuccess(stageName, operation string, result toolexec.Result, err error) error {
	if err != nil {
		return apperrors.Wrap(apperrors.ErrToolchain, stageName, operation, "", err)
	}
	if !result.Success() {
		return apperrors.Wrap(apperrors.ErrToolchain, stageName, operation,
			fmt.Sprintf("exited %d: %s", result.ExitCode, result.Stderr), nil)
	}
	return nil
}
