package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/office-attendance/internal/week"
)

const notSubmitted = "Not submitted"

// Aggregator joins the roster with a week's submissions. Every result is recomputed from
// storage on each call.
type Aggregator struct {
	roster     *RosterService
	attendance AttendanceRepository
	logger     *slog.Logger
}

// NewAggregator wires dependencies for the aggregator.
func NewAggregator(roster *RosterService, attendance AttendanceRepository) *Aggregator {
	return NewAggregatorWithLogger(roster, attendance, nil)
}

// NewAggregatorWithLogger wires dependencies and a base logger for the aggregator.
func NewAggregatorWithLogger(roster *RosterService, attendance AttendanceRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{roster: roster, attendance: attendance, logger: defaultLogger(logger)}
}

// BuildWeeklyView returns exactly one entry per roster user, in roster order, carrying the
// user's record for wk or nil.
func (a *Aggregator) BuildWeeklyView(ctx context.Context, wk week.Key) (WeeklyView, error) {
	users, records, err := a.snapshot(ctx, wk, "BuildWeeklyView")
	if err != nil {
		return WeeklyView{}, err
	}

	byUser := make(map[string]AttendanceRecord, len(records))
	for _, record := range records {
		byUser[record.UserID] = record
	}

	entries := make([]WeeklyEntry, 0, len(users))
	for _, user := range users {
		entry := WeeklyEntry{UserID: user.ID, UserName: user.Name}
		if record, ok := byUser[user.ID]; ok {
			record := record
			entry.Record = &record
		}
		entries = append(entries, entry)
	}
	return WeeklyView{Week: wk, Entries: entries}, nil
}

// PendingUsers returns roster users without a record for wk, in roster order.
func (a *Aggregator) PendingUsers(ctx context.Context, wk week.Key) ([]User, error) {
	users, records, err := a.snapshot(ctx, wk, "PendingUsers")
	if err != nil {
		return nil, err
	}
	return pendingFrom(users, records), nil
}

// Tally counts statuses per day across records. Days without a status contribute nothing.
func (a *Aggregator) Tally(records ...AttendanceRecord) WeekTally {
	var tally WeekTally
	for _, record := range records {
		for _, day := range Weekdays {
			tally.Days[day].add(record.Days.Day(day))
		}
	}
	return tally
}

// Summary renders a per-user line such as "3 🏢, 1 🏠, 1 🌴", or "Not submitted" when record is
// nil or carries no statuses.
func (a *Aggregator) Summary(record *AttendanceRecord) string {
	if record == nil {
		return notSubmitted
	}
	totals := a.Tally(*record).Totals()

	parts := make([]string, 0, len(statusGroups))
	for _, group := range statusGroups {
		if n := totals.Count(group.status); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, group.icon))
		}
	}
	if len(parts) == 0 {
		return notSubmitted
	}
	return strings.Join(parts, ", ")
}

func (a *Aggregator) snapshot(ctx context.Context, wk week.Key, operation string) ([]User, []AttendanceRecord, error) {
	if a == nil || a.roster == nil || a.attendance == nil {
		return nil, nil, fmt.Errorf("aggregator not configured")
	}

	users, err := a.roster.ListUsers(ctx)
	if err != nil {
		return nil, nil, err
	}

	records, err := a.attendance.ListForWeek(ctx, wk)
	if err != nil {
		wrapped := storageError("list attendance", err)
		serviceLogger(ctx, a.logger, "Aggregator", operation, "week", wk.String()).
			ErrorContext(ctx, "failed to list attendance", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return nil, nil, wrapped
	}
	return users, records, nil
}

func pendingFrom(users []User, records []AttendanceRecord) []User {
	submitted := make(map[string]struct{}, len(records))
	for _, record := range records {
		submitted[record.UserID] = struct{}{}
	}

	pending := make([]User, 0, len(users))
	for _, user := range users {
		if _, ok := submitted[user.ID]; !ok {
			pending = append(pending, user)
		}
	}
	return pending
}
