// Package memory provides a map backed persistence.Store for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/office-attendance/internal/persistence"
)

type attendanceKey struct {
	userID string
	week   string
}

// Storage keeps every record in process memory.
type Storage struct {
	mu         sync.RWMutex
	users      map[string]persistence.User
	attendance map[attendanceKey]persistence.AttendanceRecord
	settings   *persistence.Settings
	now        func() time.Time
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		users:      make(map[string]persistence.User),
		attendance: make(map[attendanceKey]persistence.AttendanceRecord),
		now:        time.Now,
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// Migrate is a no-op.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(_ context.Context, user persistence.User) error {
	if user.ID == "" || user.Name == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%w: user %s", persistence.ErrDuplicate, user.ID)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// ListUsers returns every user ordered by name, then ID.
func (s *Storage) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// --- AttendanceRepository implementation ---

// UpsertAttendance stores the record under its (user, week) pair, replacing any previous one.
func (s *Storage) UpsertAttendance(_ context.Context, record persistence.AttendanceRecord) error {
	if record.UserID == "" || record.Week == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[record.UserID]; !ok {
		return fmt.Errorf("%w: unknown user %s", persistence.ErrConstraintViolation, record.UserID)
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = s.now()
	}
	s.attendance[attendanceKey{userID: record.UserID, week: record.Week}] = record
	return nil
}

// GetAttendance returns the record for userID and week.
func (s *Storage) GetAttendance(_ context.Context, userID, week string) (persistence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.attendance[attendanceKey{userID: userID, week: week}]
	if !ok {
		return persistence.AttendanceRecord{}, persistence.ErrNotFound
	}
	return record, nil
}

// CountForWeek counts the week's records.
func (s *Storage) CountForWeek(_ context.Context, week string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key := range s.attendance {
		if key.week == week {
			count++
		}
	}
	return count, nil
}

// ListForWeek returns the week's records ordered by user name, then user ID.
func (s *Storage) ListForWeek(_ context.Context, week string) ([]persistence.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]persistence.AttendanceRecord, 0)
	for key, record := range s.attendance {
		if key.week == week {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].UserName == records[j].UserName {
			return records[i].UserID < records[j].UserID
		}
		return records[i].UserName < records[j].UserName
	})
	return records, nil
}

// --- SettingsRepository implementation ---

// GetSettings returns the saved settings or persistence.ErrNotFound.
func (s *Storage) GetSettings(_ context.Context) (persistence.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return persistence.Settings{}, persistence.ErrNotFound
	}
	return *s.settings, nil
}

// SaveSettings replaces the settings.
func (s *Storage) SaveSettings(_ context.Context, settings persistence.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = s.now()
	}
	s.settings = &settings
	return nil
}
