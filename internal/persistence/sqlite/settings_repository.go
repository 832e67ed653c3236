package sqlite

import (
	"context"
	"time"

	"github.com/example/office-attendance/internal/persistence"
)

const settingsID = "settings"

// SettingsRepository implements persistence.SettingsRepository using SQLite
type SettingsRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSettingsRepository creates a new SQLite settings repository
func NewSettingsRepository(pool *ConnectionPool) *SettingsRepository {
	return &SettingsRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetSettings returns the stored settings or persistence.ErrNotFound.
func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.Settings, error) {
	var settings persistence.Settings
	var updatedAt string
	err := r.helper.QueryRow(ctx, `SELECT teams_webhook_url, updated_at FROM settings WHERE id = ?`, settingsID).
		Scan(&settings.TeamsWebhookURL, &updatedAt)
	if err != nil {
		return persistence.Settings{}, r.mapper.MapError(err)
	}
	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Settings{}, err
	}
	return settings, nil
}

// SaveSettings creates or replaces the settings row.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}
	const query = `
		INSERT INTO settings (id, teams_webhook_url, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			teams_webhook_url = excluded.teams_webhook_url,
			updated_at = excluded.updated_at
	`
	if _, err := r.helper.Exec(ctx, query, settingsID, settings.TeamsWebhookURL, formatTime(settings.UpdatedAt)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
