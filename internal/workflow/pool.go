package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vibe2apk/internal/apperrors"
	"vibe2apk/internal/logging"
	"vibe2apk/internal/metrics"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/stage"
)

const (
	// pollInterval is how long an idle worker waits between empty Claim
	// attempts before trying again.
	pollInterval = 2 * time.Second

	// reclaimInterval is how often the pool sweeps for tasks whose lease
	// expired without a heartbeat.
	reclaimInterval = 30 * time.Second

	// reclaimBatch bounds how many stale leases a single sweep fails.
	reclaimBatch = 50

	// safetyHeartbeatInterval keeps a task's lease alive even through build
	// phases that produce no natural progress report (e.g. pure Go logic
	// between subprocess calls), well under queue.DefaultLeaseTTL.
	safetyHeartbeatInterval = 15 * time.Second
)

// HandlerFor resolves the stage.Handler responsible for a task's Kind.
type HandlerFor func(queue.Kind) (stage.Handler, error)

// Pool runs a fixed number of workers draining tasks from a queue.Store.
type Pool struct {
	store    *queue.Store
	handlers HandlerFor
	logger   *slog.Logger
	workers  int
	leaseTTL time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool constructs a worker pool. workers must be >= 1.
func NewPool(store *queue.Store, handlers HandlerFor, logger *slog.Logger, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		store:    store,
		handlers: handlers,
		logger:   logger,
		workers:  workers,
		leaseTTL: queue.DefaultLeaseTTL,
	}
}

// Start launches the worker goroutines and the stale-lease reclaimer.
// Returns an error if the pool is already running.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("worker pool already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(p.workers + 1)
	p.mu.Unlock()

	metrics.WorkersActive.Set(float64(p.workers))

	go p.runReclaimer(runCtx)
	for i := 0; i < p.workers; i++ {
		go p.runWorker(runCtx, i)
	}
	return nil
}

// Stop stops workers from claiming new tasks and blocks until in-flight
// builds return. There is no forced timeout: a build in progress runs to
// completion, external-tool calls included, rather than being killed
// mid-write.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	metrics.WorkersActive.Set(0)
}

func (p *Pool) runReclaimer(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(reclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := p.store.ReclaimStale(ctx, reclaimBatch)
			if err != nil {
				p.logger.Warn("stale lease reclaim failed", logging.Error(err))
				continue
			}
			if len(reclaimed) > 0 {
				p.logger.Info("reclaimed stale tasks", slog.Int("count", len(reclaimed)))
				metrics.ReclaimedLeasesTotal.Add(float64(len(reclaimed)))
				for _, id := range reclaimed {
					kind := "unknown"
					if task, getErr := p.store.Get(ctx, id); getErr == nil {
						kind = string(task.Kind)
					}
					metrics.BuildsFailedTotal.WithLabelValues(kind).Inc()
				}
			}
		}
	}
}

func (p *Pool) runWorker(ctx context.Context, index int) {
	defer p.wg.Done()
	logger := p.logger.With(slog.Int("worker", index))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.store.Claim(ctx, p.leaseTTL)
		if err != nil {
			logger.Error("claim failed", logging.Error(err))
			p.wait(ctx, pollInterval)
			continue
		}
		if task == nil {
			p.wait(ctx, pollInterval)
			continue
		}

		// The build runs detached from ctx's cancellation so Stop lets it
		// finish instead of killing its external-tool subprocesses.
		p.build(context.WithoutCancel(ctx), logger, task)
	}
}

func (p *Pool) wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (p *Pool) build(ctx context.Context, logger *slog.Logger, task *queue.Task) {
	buildCtx := logging.WithTaskID(ctx, task.ID)
	taskLogger := logging.WithContext(buildCtx, logger).With(
		slog.String(logging.FieldTaskID, task.ID),
		slog.String(logging.FieldApp, task.AppName),
		slog.String(logging.FieldType, string(task.Kind)),
	)
	start := time.Now()
	taskLogger.Info("build started")

	handler, err := p.handlers(task.Kind)
	if err != nil {
		p.fail(buildCtx, taskLogger, task.ID, apperrors.Wrap(apperrors.ErrInternal, "workflow", "resolve handler", "no build pipeline for task kind", err))
		return
	}

	stop, report := p.reporter(buildCtx, taskLogger, task.ID)
	defer stop()

	result, execErr := p.execute(buildCtx, handler, task, report)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			taskLogger.Warn("build context cancelled; lease left to expire")
			return
		}
		p.fail(buildCtx, taskLogger, task.ID, execErr)
		return
	}

	if err := p.store.Complete(buildCtx, task.ID, result); err != nil {
		taskLogger.Error("failed to persist build result", logging.Error(err))
		return
	}
	taskLogger.Info("build finished",
		slog.Bool(logging.FieldSuccess, result.Success),
		slog.Duration(logging.FieldDuration, time.Since(start)),
	)

	kind := string(task.Kind)
	metrics.BuildsCompletedTotal.WithLabelValues(kind, boolLabel(result.Success)).Inc()
	metrics.BuildDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// execute runs Prepare then Execute, recovering from a panic in either so a
// single misbehaving pipeline can never take down a worker goroutine.
func (p *Pool) execute(ctx context.Context, handler stage.Handler, task *queue.Task, report stage.Report) (result queue.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Wrap(apperrors.ErrToolchain, "workflow", "execute", fmt.Sprintf("build pipeline panicked: %v", r), nil)
		}
	}()

	if err = handler.Prepare(ctx, task); err != nil {
		return queue.Result{}, err
	}
	return handler.Execute(ctx, task, report)
}

func (p *Pool) fail(ctx context.Context, logger *slog.Logger, taskID string, err error) {
	logger.Error("build failed with an unhandled error", logging.Error(err))
	if failErr := p.store.Fail(ctx, taskID, err.Error()); failErr != nil {
		logger.Error("failed to persist build failure", logging.Error(failErr))
		return
	}
	kind := "unknown"
	if task, getErr := p.store.Get(ctx, taskID); getErr == nil {
		kind = string(task.Kind)
	}
	metrics.BuildsFailedTotal.WithLabelValues(kind).Inc()
}

// reporter builds the Report callback a Handler uses to publish progress. In
// addition to the caller-driven reports, a background ticker re-sends the
// last known progress on a fixed interval so the lease survives build
// phases with no natural progress point to hang a report on.
func (p *Pool) reporter(ctx context.Context, logger *slog.Logger, taskID string) (stop func(), report stage.Report) {
	var mu sync.Mutex
	last := queue.Progress{}

	heartbeat := func() {
		mu.Lock()
		progress := last
		mu.Unlock()
		if err := p.store.Heartbeat(ctx, taskID, progress, p.leaseTTL); err != nil {
			logger.Warn("heartbeat failed", logging.Error(err))
		}
	}

	report = func(percent int, message string) {
		mu.Lock()
		last = queue.Progress{Percent: percent, Message: message}
		mu.Unlock()
		heartbeat()
	}

	tickerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(safetyHeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				heartbeat()
			}
		}
	}()

	stop = func() {
		cancel()
		wg.Wait()
	}
	return stop, report
}
