package persistence

import "time"

// User is a roster member as stored. Credential holds either a plaintext secret or an
// argon2id encoded hash.
type User struct {
	ID         string
	Name       string
	Credential string
	CreatedAt  time.Time
}

// DayStatuses stores one status string per working day.
type DayStatuses struct {
	Monday    string
	Tuesday   string
	Wednesday string
	Thursday  string
	Friday    string
}

// AttendanceRecord is the stored submission for one user and week. Week is the YYYY-MM-DD
// Monday key.
type AttendanceRecord struct {
	UserID      string
	UserName    string
	Week        string
	Days        DayStatuses
	SubmittedAt time.Time
}

// Settings is the single process-wide configuration record.
type Settings struct {
	TeamsWebhookURL string
	UpdatedAt       time.Time
}
