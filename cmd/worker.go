package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-analyzer/internal/config"
	"media-analyzer/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a standalone worker pool (requires redis queue and sqlite store)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		// A standalone pool must share its queue and store with the API
		// process; the in-memory backends cannot cross processes.
		if cfg.QueueBackend != "redis" {
			return fmt.Errorf("worker mode needs QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
		}
		if cfg.StoreBackend != "sqlite" {
			return fmt.Errorf("worker mode needs STORE_BACKEND=sqlite, got %q", cfg.StoreBackend)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := newLogger(cfg)
		slog.SetDefault(logger)

		st, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := buildQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer q.Close()

		executor, err := buildExecutor(ctx, cfg, st, logger)
		if err != nil {
			return err
		}

		logger.Info("worker pool starting", "workers", cfg.Workers, "queue_key", cfg.RedisQueueKey)
		pool := worker.NewPool(q, st, executor, cfg.Workers, logger)
		pool.Start(ctx)
		pool.Wait()
		logger.Info("worker pool stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
