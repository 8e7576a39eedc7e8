package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"media-analyzer/internal/artifact"
	"media-analyzer/internal/config"
	"media-analyzer/internal/pipeline"
	"media-analyzer/internal/queue"
	"media-analyzer/internal/stage"
	"media-analyzer/internal/store"
)

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

func buildStore(cfg config.Config) (store.JobStore, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Queue, error) {
	switch cfg.QueueBackend {
	case "memory":
		return queue.NewMemoryQueue(cfg.QueueBuffer), nil
	case "redis":
		return queue.NewRedisQueue(ctx, queue.RedisOptions{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			Key:         cfg.RedisQueueKey,
			PollTimeout: cfg.PollTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}

// buildExecutor connects artifact storage and the four stage adapters.
func buildExecutor(ctx context.Context, cfg config.Config, st store.JobStore, logger *slog.Logger) (*pipeline.Executor, error) {
	artifacts, err := artifact.New(ctx, artifact.Options{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Region:    cfg.MinioRegion,
		Bucket:    cfg.MinioBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("artifact storage: %w", err)
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	runner := stage.ExecRunner{}
	return pipeline.New(pipeline.Options{
		Store:        st,
		Fetcher:      stage.NewYTDLPFetcher(runner, artifacts, cfg.YTDLPPath, cfg.TempDir),
		Extractor:    stage.NewFFmpegExtractor(runner, artifacts, cfg.FFmpegPath, cfg.TempDir),
		Transcriber:  stage.NewWhisperTranscriber(runner, artifacts, cfg.WhisperPath, cfg.WhisperModelPath, cfg.TempDir),
		Classifier:   stage.NewLLMClassifier(http.DefaultClient, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel),
		StageTimeout: cfg.StageTimeout,
		Retry: stage.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		Logger: logger,
	}), nil
}
