// Package migration applies versioned SQL schema changes to a SQLite database.
//
// Migrations are read from an fs.FS (normally an embed.FS compiled into the binary) and
// follow the naming convention {version}_{description}.sql, e.g. "001_initial_schema.sql".
// Each migration runs inside its own transaction and is recorded in the schema_migrations
// table so that it is applied at most once.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(files, "migrations"), NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
