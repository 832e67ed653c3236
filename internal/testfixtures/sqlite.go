package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/persistence/sqlite"
	"github.com/example/office-attendance/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style persistence tests.
type SQLiteHarness struct {
	Storage    *sqlite.Storage
	Users      persistence.UserRepository
	Attendance persistence.AttendanceRepository
	Settings   persistence.SettingsRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	cfg := migration.TempFileTestSQLiteConfig(filepath.Join(tb.TempDir(), "attendance.db"))

	storage, err := sqlite.OpenWithConfig(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:    storage,
		Users:      storage,
		Attendance: storage,
		Settings:   storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedRoster inserts the given users, failing the test on error.
func (h *SQLiteHarness) SeedRoster(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, user := range users {
		if err := h.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
			tb.Fatalf("failed to seed user %s: %v", user.ID, err)
		}
	}
}
