package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/office-attendance/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository using SQLite
type AttendanceRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertAttendance writes the record, replacing every column of an existing (user, week) row
// in the same statement.
func (r *AttendanceRepository) UpsertAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	if strings.TrimSpace(record.UserID) == "" || strings.TrimSpace(record.Week) == "" {
		return persistence.ErrConstraintViolation
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now()
	}

	const query = `
		INSERT INTO attendance (user_id, user_name, week, monday, tuesday, wednesday, thursday, friday, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week) DO UPDATE SET
			user_name = excluded.user_name,
			monday = excluded.monday,
			tuesday = excluded.tuesday,
			wednesday = excluded.wednesday,
			thursday = excluded.thursday,
			friday = excluded.friday,
			submitted_at = excluded.submitted_at
	`
	_, err := r.helper.Exec(ctx, query,
		record.UserID,
		record.UserName,
		record.Week,
		record.Days.Monday,
		record.Days.Tuesday,
		record.Days.Wednesday,
		record.Days.Thursday,
		record.Days.Friday,
		formatTime(record.SubmittedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetAttendance returns the record stored for userID and week.
func (r *AttendanceRepository) GetAttendance(ctx context.Context, userID, week string) (persistence.AttendanceRecord, error) {
	const query = `
		SELECT user_id, user_name, week, monday, tuesday, wednesday, thursday, friday, submitted_at
		FROM attendance
		WHERE user_id = ? AND week = ?
	`
	record, err := scanRecord(r.helper.QueryRow(ctx, query, userID, week))
	if err != nil {
		return persistence.AttendanceRecord{}, r.mapper.MapError(err)
	}
	return record, nil
}

// CountForWeek returns how many records exist for week.
func (r *AttendanceRepository) CountForWeek(ctx context.Context, week string) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM attendance WHERE week = ?`, week).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// ListForWeek returns the week's records ordered by user name, then user ID.
func (r *AttendanceRepository) ListForWeek(ctx context.Context, week string) ([]persistence.AttendanceRecord, error) {
	const query = `
		SELECT user_id, user_name, week, monday, tuesday, wednesday, thursday, friday, submitted_at
		FROM attendance
		WHERE week = ?
		ORDER BY user_name ASC, user_id ASC
	`
	rows, err := r.helper.Query(ctx, query, week)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	records := make([]persistence.AttendanceRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (persistence.AttendanceRecord, error) {
	var record persistence.AttendanceRecord
	var submittedAt string
	err := row.Scan(
		&record.UserID,
		&record.UserName,
		&record.Week,
		&record.Days.Monday,
		&record.Days.Tuesday,
		&record.Days.Wednesday,
		&record.Days.Thursday,
		&record.Days.Friday,
		&submittedAt,
	)
	if err != nil {
		return persistence.AttendanceRecord{}, err
	}
	if record.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return persistence.AttendanceRecord{}, fmt.Errorf("attendance %s/%s: %w", record.UserID, record.Week, err)
	}
	return record, nil
}
