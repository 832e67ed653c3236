package migration

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrationManager_RunMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db"))
	db, err := NewConnectionManager(cfg).GetConnection()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	files := fstest.MapFS{
		"m/001_create_users.sql": {Data: []byte("CREATE TABLE users (id TEXT PRIMARY KEY, name TEXT NOT NULL);")},
		"m/002_seed_users.sql":   {Data: []byte("INSERT INTO users (id, name) VALUES ('u1', 'Alice');\nINSERT INTO users (id, name) VALUES ('u2', 'Bob');")},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewMigrationManager(NewFileScanner(files, "m"), NewSQLiteExecutor(db), logger)

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}

	// a second run must not re-apply the seed migration
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 users after repeated runs, got %d", count)
	}
}

func TestMigrationManager_FailedMigrationRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "broken.db"))
	db, err := NewConnectionManager(cfg).GetConnection()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	files := fstest.MapFS{
		"m/001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE broken (;")},
	}
	manager := NewMigrationManager(NewFileScanner(files, "m"), NewSQLiteExecutor(db), slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := manager.RunMigrations(ctx); err == nil {
		t.Fatalf("expected migration failure")
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'ok'").Scan(&name)
	if err == nil {
		t.Fatalf("expected table from failed migration to be rolled back")
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.PendingCount != 1 {
		t.Fatalf("expected failed migration to remain pending, got %+v", status)
	}
}

func TestSQLiteConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	cfg := SQLiteConfig{DSN: "file:data/attendance.db?cache=shared", EnableForeignKeys: true}
	if cfg.Path() != "data/attendance.db" {
		t.Fatalf("unexpected path %q", cfg.Path())
	}
	if got := cfg.ConnectionString(); got != "file:data/attendance.db?_pragma=foreign_keys%281%29&cache=shared" {
		t.Fatalf("unexpected connection string %q", got)
	}

	if !(SQLiteConfig{DSN: ":memory:"}).IsMemory() {
		t.Fatalf("expected :memory: to be detected")
	}
	if err := NewConnectionManager(SQLiteConfig{DSN: "x.db", JournalMode: "BOGUS"}).ValidateConfig(); err == nil {
		t.Fatalf("expected invalid journal mode to be rejected")
	}
}
