package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage is the SQLite backed persistence.Store.
type Storage struct {
	*UserRepository
	*AttendanceRepository
	*SettingsRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the database at dsn using the default pool settings. Call Migrate before use.
func Open(dsn string, logger *slog.Logger) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(dsn), logger)
}

// OpenWithConfig connects using an explicit configuration.
func OpenWithConfig(cfg migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:       NewUserRepository(pool),
		AttendanceRepository: NewAttendanceRepository(pool),
		SettingsRepository:   NewSettingsRepository(pool),
		pool:                 pool,
		logger:               logger.With("component", "sqlite"),
	}, nil
}

// Migrate applies every pending embedded schema migration.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
