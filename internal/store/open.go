// Package store selects and opens a job.Store backend.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/store/memory"
	"github.com/tendant/simple-inspector/internal/store/mongo"
	"github.com/tendant/simple-inspector/internal/store/postgres"
	"github.com/tendant/simple-inspector/internal/store/sqlite"
)

// Config names a backend and how to reach it.
type Config struct {
	// Driver is one of memory, sqlite, postgres or mongo.
	Driver string
	// URL is the sqlite file path, postgres connection string or mongo URI.
	URL string
	// Database is the mongo database name.
	Database string
}

// Backend is an opened store with its lifecycle hooks.
type Backend struct {
	job.Store
	Driver string
	ping   func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// Ping reports whether the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the configured backend and prepares its schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory":
		return &Backend{Store: memory.New(), Driver: "memory"}, nil

	case "sqlite":
		path := cfg.URL
		if path == "" {
			path = "./data/inspections.db"
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  s,
			Driver: driver,
			ping:   s.Ping,
			close:  func(context.Context) error { return s.Close() },
		}, nil

	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres store requires a connection string")
		}
		s, err := postgres.New(ctx, cfg.URL, postgres.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return &Backend{
			Store:  s,
			Driver: driver,
			ping:   s.Ping,
			close:  func(context.Context) error { return s.Close() },
		}, nil

	case "mongo", "mongodb":
		if cfg.URL == "" {
			return nil, fmt.Errorf("mongo store requires a URI")
		}
		name := cfg.Database
		if name == "" {
			name = "inspections"
		}
		s, err := mongo.Connect(ctx, cfg.URL, name, mongo.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return &Backend{Store: s, Driver: "mongo", ping: s.Ping, close: s.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q (want memory, sqlite, postgres or mongo)", cfg.Driver)
	}
}
