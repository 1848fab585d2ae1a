package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vibe2apk/internal/config"
	"vibe2apk/internal/logging"
)

// newAllCommand runs the API and a worker pool in one process, the default
// single-node deployment shape grounded on the teacher's cmd/spindled
// combined daemon entrypoint (API server plus embedded workflow manager,
// one binary, one lock file). Larger deployments run "serve" and "worker"
// as separate processes instead, sharing one REDIS_URL.
func newAllCommand(ctx *commandContext) *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run the API and a worker pool together in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runAll(cfg, foreground)
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "show a live spinner reporting the process is alive, for interactive/manual runs")
	return cmd
}

func runAll(cfg *config.Config, foreground bool) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock, err := acquireProcessLock(cfg, "all")
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

	server, err := startAPIServer(signalCtx, cfg, store, logger)
	if err != nil {
		return err
	}

	pool, err := startWorkerPool(signalCtx, cfg, store, logger)
	if err != nil {
		server.Stop()
		return err
	}

	if foreground {
		go runForegroundSpinner(signalCtx, cfg.WorkerConcurrency)
	}

	<-signalCtx.Done()
	logger.Info("vibe2apk shutting down; draining in-flight builds")
	pool.Stop()
	server.Stop()
	return nil
}
