package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vibe2apk/internal/config"
	"vibe2apk/internal/logging"
	"vibe2apk/internal/pipeline"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/stage"
	"vibe2apk/internal/sweeper"
	"vibe2apk/internal/toolexec"
	"vibe2apk/internal/workflow"
)

// newWorkerCommand runs a worker process: a fixed-concurrency build pool
// plus the storage retention sweeper, matching spec.md §3's "a periodic
// sweeper in the worker reclaims expired files".
func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a build worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runWorker(cfg, foreground)
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "show a live spinner reporting the worker is alive, for interactive/manual runs")
	return cmd
}

// runForegroundSpinner renders an indeterminate progressbar spinner until
// ctx is done, so an operator running "worker --foreground" at a terminal
// gets visual confirmation the process is alive between log lines. Grounded
// on schollz/progressbar's indeterminate mode (max<0); this is CLI-only
// decoration and never touches build state.
func runForegroundSpinner(ctx context.Context, workers int) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("vibe2apk worker (%d slots)", workers)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	defer bar.Finish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func runWorker(cfg *config.Config, foreground bool) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock, err := acquireProcessLock(cfg, "worker")
	if err != nil {
		return err
	}
	defer lock.Unlock()

	store, rdb, err := openQueueStore(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer rdb.Close()

	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.Ping(signalCtx); err != nil {
		return fmt.Errorf("ping redis at %s: %w", config.MaskedRedisURL(cfg.RedisURL), err)
	}

	pool, err := startWorkerPool(signalCtx, cfg, store, logger)
	if err != nil {
		return err
	}

	if foreground {
		go runForegroundSpinner(signalCtx, cfg.WorkerConcurrency)
	}

	<-signalCtx.Done()
	logger.Info("vibe2apk worker shutting down; draining in-flight builds")
	pool.Stop()
	return nil
}

// startWorkerPool builds the build pipelines, starts the worker pool and its
// retention sweeper against an already-open queue.Store, without blocking on
// ctx.Done(). Shared by the "worker" and "all" subcommands.
func startWorkerPool(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) (*workflow.Pool, error) {
	runner := toolexec.OSRunner{}
	htmlHandler := pipeline.NewHTMLHandler(cfg, runner, http.DefaultClient)
	zipHandler := pipeline.NewZipHandler(cfg, runner)

	handlerFor := func(kind queue.Kind) (stage.Handler, error) {
		switch kind {
		case queue.KindHTML:
			return htmlHandler, nil
		case queue.KindZip:
			return zipHandler, nil
		default:
			return nil, fmt.Errorf("no build pipeline registered for kind %q", kind)
		}
	}

	pool := workflow.NewPool(store, handlerFor, logger, cfg.WorkerConcurrency)
	if err := pool.Start(ctx); err != nil {
		return nil, fmt.Errorf("start worker pool: %w", err)
	}

	sw := sweeper.New(cfg.BuildsDir, cfg.FileRetention(), cfg.SweepInterval, logger)
	go sw.Run(ctx)

	logger.Info("vibe2apk worker running",
		slog.Int("concurrency", cfg.WorkerConcurrency),
		slog.String("redis", config.MaskedRedisURL(cfg.RedisURL)),
		slog.Bool("mock_build", cfg.MockBuild),
	)
	return pool, nil
}
