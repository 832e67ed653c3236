package persistence

import "context"

// UserRepository exposes the roster.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// AttendanceRepository stores one attendance record per (user, week).
type AttendanceRepository interface {
	// UpsertAttendance inserts the record or fully replaces the one stored under the same
	// (UserID, Week) pair in a single atomic write.
	UpsertAttendance(ctx context.Context, record AttendanceRecord) error
	GetAttendance(ctx context.Context, userID, week string) (AttendanceRecord, error)
	CountForWeek(ctx context.Context, week string) (int, error)
	// ListForWeek returns the week's records ordered by user name, then user ID.
	ListForWeek(ctx context.Context, week string) ([]AttendanceRecord, error)
}

// SettingsRepository stores the notification settings record. GetSettings returns ErrNotFound
// when no record was ever saved.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// Store bundles every repository a storage backend provides.
type Store interface {
	UserRepository
	AttendanceRepository
	SettingsRepository
	Close() error
}
