package migration

import (
	"errors"
	"fmt"
)

var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	ErrInvalidVersion       = errors.New("invalid migration version")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
)

// StepError names the migration step that failed. Source is the file name for scan steps and
// the SQL text for database steps; it is kept for logging and left out of Error.
type StepError struct {
	Version string
	Source  string
	Step    string
	Err     error
}

func (e *StepError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s: %s: %v", e.Version, e.Step, e.Err)
	}
	return fmt.Sprintf("migration: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(version, source, step string, err error) *StepError {
	return &StepError{Version: version, Source: source, Step: step, Err: err}
}
