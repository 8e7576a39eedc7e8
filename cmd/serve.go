package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"media-analyzer/internal/api"
	"media-analyzer/internal/config"
	"media-analyzer/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake API with an embedded worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

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

		pool := worker.NewPool(q, st, executor, cfg.Workers, logger)
		pool.Start(ctx)

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewServer(st, q, logger).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http shutdown", "error", err)
			}
		}()

		logger.Info("serving", "addr", cfg.HTTPAddr, "workers", cfg.Workers,
			"queue", cfg.QueueBackend, "store", cfg.StoreBackend)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		// In-flight jobs finish before exit.
		pool.Wait()
		logger.Info("shut down cleanly")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
