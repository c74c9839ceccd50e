package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/carereminder/internal/credential"
	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/source"
	"github.com/nhle/carereminder/internal/source/booking"
	"github.com/nhle/carereminder/internal/store"
)

// Components holds everything built from an AppConfig.
type Components struct {
	Store  *store.NotificationStore
	Engine *engine.Engine

	closer io.Closer
}

// Close releases the storage backend.
func (c *Components) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Build wires the storage backend, the booking API source and the
// engine described by cfg.
func Build(ctx context.Context, cfg *model.AppConfig, logger *slog.Logger) (*Components, error) {
	kv, closer, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	src := newBookingSource(cfg, logger)
	return BuildWith(cfg, kv, closer, src, logger), nil
}

// BuildWith wires an engine on an existing KV and source.
func BuildWith(
	cfg *model.AppConfig,
	kv store.KV,
	closer io.Closer,
	src source.AppointmentSource,
	logger *slog.Logger,
) *Components {
	loc := cfg.Reminders.Location()
	now := func() time.Time { return time.Now().In(loc) }

	st := store.NewNotificationStore(kv, store.Options{
		Key:       cfg.Storage.Key,
		Retention: cfg.Reminders.Retention(),
		Now:       now,
		Logger:    logger.With("component", "store"),
	})

	eng := engine.New(src, st, engine.Config{
		Interval:      cfg.Reminders.PollInterval(),
		UpcomingLimit: cfg.Reminders.UpcomingLimit,
		PruneInactive: cfg.Reminders.PruneInactive,
		Now:           now,
		Logger:        logger.With("component", "engine"),
	})

	return &Components{Store: st, Engine: eng, closer: closer}
}

// openKV opens the configured storage backend.
func openKV(ctx context.Context, cfg model.StorageConfig) (store.KV, io.Closer, error) {
	switch cfg.Backend {
	case model.StorageSQLite, "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating storage directory: %w", err)
			}
		}
		kv, err := store.NewSQLiteKV(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite storage %s: %w", cfg.Path, err)
		}
		return kv, kv, nil
	case model.StorageRedis:
		kv, err := store.NewRedisKV(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "carereminder:",
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	case model.StorageMemory:
		return store.NewMemoryKV(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newBookingSource builds the booking API adapter, loading the API
// token from the environment or the system keyring.
func newBookingSource(cfg *model.AppConfig, logger *slog.Logger) *booking.Adapter {
	token, err := credential.APIToken()
	if err != nil {
		// The keyring may be unavailable on headless machines.
		logger.Warn("booking API token unavailable, continuing without", "err", err)
		token = ""
	}

	client := booking.NewClient(cfg.API.BaseURL, token, booking.ClientOptions{
		Timeout:         cfg.API.Timeout(),
		RateLimitPerSec: cfg.API.RateLimitPerSec,
		MaxRetries:      cfg.API.MaxRetries,
	})
	return booking.NewAdapter(client, cfg.Reminders.Location(), logger.With("component", "booking"))
}
