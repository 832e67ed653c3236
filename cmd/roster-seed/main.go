// Command roster-seed provisions roster users and the notification settings record from a
// YAML file into the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/office-attendance/internal/config"
	"github.com/example/office-attendance/internal/logging"
	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/persistence/mongo"
	"github.com/example/office-attendance/internal/persistence/sqlite"
)

func main() {
	rosterPath := flag.String("file", "roster.yaml", "roster YAML file")
	hash := flag.Bool("hash", false, "store credentials as argon2id hashes")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := config.LoadDotEnv(*envFile); err != nil {
		bootstrap.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr})
	if err != nil {
		bootstrap.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(context.Background(), cfg, *rosterPath, *hash, logger); err != nil {
		logger.Error("roster seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, path string, hash bool, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := parseRoster(f)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := seed(ctx, store, file, seedOptions{Hash: hash}, logger)
	if err != nil {
		return err
	}
	logger.Info("roster seeded", "created", len(report.Created), "skipped", len(report.Skipped), "settings_updated", report.SettingsUpdated)
	return nil
}

type migratingStore interface {
	persistence.Store
	Migrate(ctx context.Context) error
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (migratingStore, error) {
	var (
		store migratingStore
		err   error
	)
	switch cfg.StorageDriver {
	case config.DriverMongo:
		store, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case config.DriverSQLite:
		store, err = sqlite.Open(cfg.SQLiteDSN, logger)
	default:
		return nil, fmt.Errorf("storage driver %q cannot be seeded", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
