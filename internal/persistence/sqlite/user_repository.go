package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/office-attendance/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new roster member. CreatedAt defaults to now when unset.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO users (id, name, credential, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.helper.Exec(ctx, query, user.ID, user.Name, user.Credential, formatTime(user.CreatedAt)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	const query = `
		SELECT id, name, credential, created_at
		FROM users
		WHERE id = ?
	`
	var user persistence.User
	var createdAt string
	if err := r.helper.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Credential, &createdAt); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	parsed, err := parseTime(createdAt)
	if err != nil {
		return persistence.User{}, err
	}
	user.CreatedAt = parsed
	return user, nil
}

// ListUsers returns the full roster ordered by name, then ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	const query = `
		SELECT id, name, credential, created_at
		FROM users
		ORDER BY name ASC, id ASC
	`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		var user persistence.User
		var createdAt string
		if err := rows.Scan(&user.ID, &user.Name, &user.Credential, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		if user.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}
