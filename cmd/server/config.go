package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"

	simpleconfig "github.com/tendant/simple-content/pkg/simplecontent/config"

	"github.com/tendant/simple-inspector/internal/bus"
	"github.com/tendant/simple-inspector/internal/store"
)

type config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogFormat       string
	LogLevel        slog.Level
	Store           store.Config
	NATSURL         string
	EventPrefix     string
	BannerSource    string
	BannerPath      string
	BannerContentID uuid.UUID
}

func loadConfig() (config, error) {
	cfg := config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "text")),
		NATSURL:      getenv("NATS_URL", ""),
		EventPrefix:  getenv("EVENT_SUBJECT_PREFIX", bus.DefaultPrefix),
		BannerSource: strings.ToLower(getenv("BANNER_SOURCE", "file")),
		BannerPath:   getenv("BANNER_PATH", "./public/report-banner.jpeg"),
		Store: store.Config{
			Driver:   getenv("STORE_DRIVER", "sqlite"),
			URL:      getenv("STORE_URL", ""),
			Database: getenv("MONGO_DATABASE", "inspections"),
		},
	}

	switch cfg.LogFormat {
	case "text", "json", "tint":
	default:
		return config{}, fmt.Errorf("invalid LOG_FORMAT %q (want text, json or tint)", cfg.LogFormat)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	seconds, err := parsePositiveInt(getenv("SHUTDOWN_TIMEOUT_SECONDS", "15"), "SHUTDOWN_TIMEOUT_SECONDS")
	if err != nil {
		return config{}, err
	}
	cfg.ShutdownTimeout = time.Duration(seconds) * time.Second

	switch cfg.BannerSource {
	case "none", "file":
	case "content":
		id, err := uuid.Parse(getenv("BANNER_CONTENT_ID", ""))
		if err != nil {
			return config{}, fmt.Errorf("invalid BANNER_CONTENT_ID: %w", err)
		}
		cfg.BannerContentID = id
	default:
		return config{}, fmt.Errorf("invalid BANNER_SOURCE %q (want none, file or content)", cfg.BannerSource)
	}

	return cfg, nil
}

func loadSimpleContentConfig() (*simpleconfig.ServerConfig, error) {
	opts := []simpleconfig.Option{
		simpleconfig.WithDatabase(getenv("DATABASE_TYPE", "postgres"), getenv("DATABASE_URL", "")),
		simpleconfig.WithDatabaseSchema(getenv("DATABASE_SCHEMA", "content")),
		simpleconfig.WithDefaultStorage(getenv("DEFAULT_STORAGE_BACKEND", "s3")),
	}

	switch getenv("DEFAULT_STORAGE_BACKEND", "s3") {
	case "s3":
		opts = append(opts, simpleconfig.WithS3StorageFull(
			"s3",
			getenv("AWS_S3_BUCKET", "inspection-assets"),
			getenv("AWS_S3_REGION", "us-east-1"),
			getenv("AWS_ACCESS_KEY_ID", ""),
			getenv("AWS_SECRET_ACCESS_KEY", ""),
			getenv("AWS_S3_ENDPOINT", ""),
			getenvBool("AWS_S3_USE_SSL", false),
			getenvBool("AWS_S3_USE_PATH_STYLE", true),
		))
	case "memory":
		opts = append(opts, simpleconfig.WithMemoryStorage("memory"))
	}

	opts = append(opts, simpleconfig.WithEventLogging(false))

	return simpleconfig.Load(opts...)
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	switch format {
	case "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

func parsePositiveInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %d)", name, v)
	}
	return v, nil
}

func getenvBool(key string, defaultValue bool) bool {
	val := getenv(key, "")
	if val == "" {
		return defaultValue
	}
	return val == "true"
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
