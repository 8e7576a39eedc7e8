package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.QueueBackend != "memory" || cfg.StoreBackend != "sqlite" {
		t.Errorf("backends = %s/%s", cfg.QueueBackend, cfg.StoreBackend)
	}
	if cfg.RetryMaxAttempts != 1 {
		t.Errorf("RetryMaxAttempts = %d, want retries off by default", cfg.RetryMaxAttempts)
	}
	if cfg.StageTimeout != 15*time.Minute {
		t.Errorf("StageTimeout = %v", cfg.StageTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("STAGE_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STAGE_RETRY_MAX_ATTEMPTS", "4")

	cfg := Load()
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.QueueBackend != "redis" {
		t.Errorf("QueueBackend = %q", cfg.QueueBackend)
	}
	if cfg.StageTimeout != 30*time.Second {
		t.Errorf("StageTimeout = %v", cfg.StageTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.RetryMaxAttempts != 4 {
		t.Errorf("RetryMaxAttempts = %d", cfg.RetryMaxAttempts)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("STAGE_TIMEOUT", "soon")

	cfg := Load()
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want default on unparsable value", cfg.Workers)
	}
	if cfg.StageTimeout != 15*time.Minute {
		t.Errorf("StageTimeout = %v, want default on unparsable value", cfg.StageTimeout)
	}
}
