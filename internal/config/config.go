// Package config assembles runtime configuration from environment
// variables. Everything has a local-development default so the service
// starts with no environment at all.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	Workers  int

	// Backends: "memory" keeps everything in-process, the alternatives
	// allow the API and worker pool to run as separate processes.
	QueueBackend string // "memory" or "redis"
	StoreBackend string // "memory" or "sqlite"

	SQLitePath  string
	QueueBuffer int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisQueueKey string
	PollTimeout   time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioRegion    string
	MinioBucket    string

	TempDir          string
	YTDLPPath        string
	FFmpegPath       string
	WhisperPath      string
	WhisperModelPath string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	StageTimeout     time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	LogLevel slog.Level
}

func Load() Config {
	logLevel := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	tempDir := os.Getenv("ANALYZER_TMP_DIR")
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return Config{
		HTTPAddr: valueOrDefault(os.Getenv("HTTP_ADDR"), ":8080"),
		Workers:  parseInt(os.Getenv("WORKER_COUNT"), 2),

		QueueBackend: valueOrDefault(os.Getenv("QUEUE_BACKEND"), "memory"),
		StoreBackend: valueOrDefault(os.Getenv("STORE_BACKEND"), "sqlite"),

		SQLitePath:  valueOrDefault(os.Getenv("SQLITE_PATH"), "./media-analyzer.db"),
		QueueBuffer: parseInt(os.Getenv("QUEUE_BUFFER"), 100),

		RedisAddr:     valueOrDefault(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseInt(os.Getenv("REDIS_DB"), 0),
		RedisQueueKey: valueOrDefault(os.Getenv("REDIS_QUEUE_KEY"), "analyzer:jobs:queue"),
		PollTimeout:   parseDuration(os.Getenv("QUEUE_POLL_TIMEOUT"), 5*time.Second),

		MinioEndpoint:  valueOrDefault(os.Getenv("MINIO_ENDPOINT"), "localhost:9000"),
		MinioAccessKey: valueOrDefault(os.Getenv("MINIO_ACCESS_KEY"), "minio"),
		MinioSecretKey: valueOrDefault(os.Getenv("MINIO_SECRET_KEY"), "minio123"),
		MinioUseSSL:    strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
		MinioRegion:    os.Getenv("MINIO_REGION"),
		MinioBucket:    valueOrDefault(os.Getenv("MINIO_BUCKET"), "analyzer-artifacts"),

		TempDir:          tempDir,
		YTDLPPath:        valueOrDefault(os.Getenv("YTDLP_PATH"), "yt-dlp"),
		FFmpegPath:       valueOrDefault(os.Getenv("FFMPEG_PATH"), "ffmpeg"),
		WhisperPath:      valueOrDefault(os.Getenv("WHISPER_PATH"), "whisper-cli"),
		WhisperModelPath: valueOrDefault(os.Getenv("WHISPER_MODEL_PATH"), "models/ggml-base.bin"),

		LLMBaseURL: valueOrDefault(os.Getenv("LLM_BASE_URL"), "https://api.openai.com/v1"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   valueOrDefault(os.Getenv("LLM_MODEL"), "gpt-4o-mini"),

		StageTimeout:     parseDuration(os.Getenv("STAGE_TIMEOUT"), 15*time.Minute),
		RetryMaxAttempts: parseInt(os.Getenv("STAGE_RETRY_MAX_ATTEMPTS"), 1),
		RetryBaseDelay:   parseDuration(os.Getenv("STAGE_RETRY_BASE_DELAY"), 2*time.Second),

		LogLevel: logLevel,
	}
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
