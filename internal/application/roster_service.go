package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// UserDirectory captures the read-only roster operations the core needs.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// RosterService exposes the roster in a stable order.
type RosterService struct {
	users  UserDirectory
	logger *slog.Logger
}

// NewRosterService wires dependencies for the roster service.
func NewRosterService(users UserDirectory) *RosterService {
	return NewRosterServiceWithLogger(users, nil)
}

// NewRosterServiceWithLogger wires dependencies and a base logger for the roster service.
func NewRosterServiceWithLogger(users UserDirectory, logger *slog.Logger) *RosterService {
	return &RosterService{users: users, logger: defaultLogger(logger)}
}

// ListUsers returns the complete roster sorted by name, ties broken by ID. Completion detection
// compares against its length, so it is never paginated.
func (s *RosterService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("roster service not configured")
	}
	logger := serviceLogger(ctx, s.logger, "RosterService", "ListUsers")

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		wrapped := storageError("list users", err)
		logger.ErrorContext(ctx, "failed to list users", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return nil, wrapped
	}

	sorted := append([]User(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted, nil
}

// FindByID returns the user with id or ErrNotFound.
func (s *RosterService) FindByID(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("roster service not configured")
	}
	if id == "" {
		return User{}, ErrNotFound
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrNotFound
		}
		wrapped := storageError("get user", err)
		serviceLogger(ctx, s.logger, "RosterService", "FindByID", "user_id", id).
			ErrorContext(ctx, "failed to load user", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return User{}, wrapped
	}
	return user, nil
}

// Directory returns id and name pairs for every roster user, in roster order.
func (s *RosterService) Directory(ctx context.Context) ([]RosterEntry, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]RosterEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, RosterEntry{ID: user.ID, Name: user.Name})
	}
	return entries, nil
}

// storageError tags a repository fault with ErrStorage unless it already carries a sentinel.
func storageError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, operation, err)
}
