package stage

import (
	"context"

	"vibe2apk/internal/queue"
)

// Report is invoked by a Handler as it makes progress through a build. It
// both records the human-facing progress line and refreshes the task's
// queue lease, so a handler that reports regularly never needs to manage
// lease renewal itself.
type Report func(percent int, message string)

// Handler describes the contract the worker pool needs from each build
// pipeline kind (HTML, zip). Prepare validates the claimed task and stages
// its workspace; Execute runs the pipeline to completion and returns a
// Result describing success or a logical (non-error) failure. Execute
// returning a non-nil error means the pipeline could not determine an
// outcome at all (toolchain crash, cancelled context): the worker pool marks
// the task failed outright, or for a cancelled context leaves its lease to
// lapse until the reclaimer fails it. This is distinct from a Result{Success:
// false} which means the pipeline ran to completion but the build itself
// did not succeed.
type Handler interface {
	Prepare(ctx context.Context, task *queue.Task) error
	Execute(ctx context.Context, task *queue.Task, report Report) (queue.Result, error)
	HealthCheck(ctx context.Context) Health
}
