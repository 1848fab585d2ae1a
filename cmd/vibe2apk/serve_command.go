package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vibe2apk/internal/apiserver"
	"vibe2apk/internal/config"
	"vibe2apk/internal/logging"
	"vibe2apk/internal/queue"
)

// newServeCommand runs the API process: admission, status, download, and
// cancel over HTTP, backed by the shared queue.Store. It never runs a
// build itself — see newWorkerCommand — matching spec.md §3's split
// between "API process" and "one or more [worker] processes".
func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingestion API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock, err := acquireProcessLock(cfg, "serve")
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

	<-signalCtx.Done()
	logger.Info("vibe2apk api shutting down")
	server.Stop()
	return nil
}

// startAPIServer builds and starts the HTTP ingestion API against an
// already-open queue.Store, without blocking on ctx.Done(). Shared by the
// "serve" and "all" subcommands so the combined-process deployment shape
// doesn't duplicate the api-server wiring.
func startAPIServer(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) (*apiserver.Server, error) {
	server := apiserver.New(cfg, store, logger)
	if err := server.Start(ctx); err != nil {
		return nil, fmt.Errorf("start api server: %w", err)
	}
	logger.Info("vibe2apk api serving",
		slog.String("redis", config.MaskedRedisURL(cfg.RedisURL)),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
	)
	return server, nil
}
