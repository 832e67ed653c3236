package application

import (
	"strings"
	"time"

	"github.com/example/office-attendance/internal/week"
)

// User is a roster member. Credential is never exposed beyond the core.
type User struct {
	ID         string
	Name       string
	Credential string
}

// RosterEntry is the public projection of a user for pickers and listings.
type RosterEntry struct {
	ID   string
	Name string
}

// Status is a per-day attendance choice.
type Status string

const (
	StatusOffice  Status = "office"
	StatusRemote  Status = "remote"
	StatusOffsite Status = "offsite"
	StatusHoliday Status = "holiday"
)

// StatusDomain is the set of statuses a write path accepts.
type StatusDomain []Status

var (
	// CanonicalStatusDomain is enforced on writes unless the legacy domain is configured.
	CanonicalStatusDomain = StatusDomain{StatusOffice, StatusRemote, StatusHoliday, StatusOffsite}
	// LegacyStatusDomain predates the offsite status.
	LegacyStatusDomain = StatusDomain{StatusOffice, StatusRemote, StatusHoliday}
)

// Contains reports whether s belongs to the domain.
func (d StatusDomain) Contains(s Status) bool {
	for _, candidate := range d {
		if candidate == s {
			return true
		}
	}
	return false
}

// String lists the domain as "office, remote, or holiday".
func (d StatusDomain) String() string {
	parts := make([]string, len(d))
	for i, s := range d {
		parts[i] = string(s)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
}

// Weekday indexes the five working days of a DaySchedule.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays lists the working days in order.
var Weekdays = [5]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = [5]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// String returns the capitalised day name.
func (d Weekday) String() string {
	if d < Monday || d > Friday {
		return ""
	}
	return weekdayNames[d]
}

// DaySchedule holds one status per working day.
type DaySchedule struct {
	Monday    Status
	Tuesday   Status
	Wednesday Status
	Thursday  Status
	Friday    Status
}

// Day returns the status recorded for d.
func (s DaySchedule) Day(d Weekday) Status {
	switch d {
	case Monday:
		return s.Monday
	case Tuesday:
		return s.Tuesday
	case Wednesday:
		return s.Wednesday
	case Thursday:
		return s.Thursday
	case Friday:
		return s.Friday
	}
	return ""
}

// AttendanceRecord is one user's submission for one week. UserName is a snapshot taken at
// submission time and may differ from the current roster name.
type AttendanceRecord struct {
	UserID      string
	UserName    string
	Week        week.Key
	Days        DaySchedule
	SubmittedAt time.Time
}

// WeeklyEntry pairs a roster user with their record, or nil when they have not submitted.
type WeeklyEntry struct {
	UserID   string
	UserName string
	Record   *AttendanceRecord
}

// WeeklyView is the roster joined with a week's submissions, in roster order.
type WeeklyView struct {
	Week    week.Key
	Entries []WeeklyEntry
}

// DayTally counts statuses for a single day.
type DayTally struct {
	Office  int
	Remote  int
	Offsite int
	Holiday int
}

// Count returns the tally for s.
func (t DayTally) Count(s Status) int {
	switch s {
	case StatusOffice:
		return t.Office
	case StatusRemote:
		return t.Remote
	case StatusOffsite:
		return t.Offsite
	case StatusHoliday:
		return t.Holiday
	}
	return 0
}

// Total is the number of counted statuses.
func (t DayTally) Total() int {
	return t.Office + t.Remote + t.Offsite + t.Holiday
}

func (t *DayTally) add(s Status) {
	switch s {
	case StatusOffice:
		t.Office++
	case StatusRemote:
		t.Remote++
	case StatusOffsite:
		t.Offsite++
	case StatusHoliday:
		t.Holiday++
	}
}

// WeekTally holds a DayTally per working day.
type WeekTally struct {
	Days [5]DayTally
}

// Day returns the tally for d.
func (t WeekTally) Day(d Weekday) DayTally {
	if d < Monday || d > Friday {
		return DayTally{}
	}
	return t.Days[d]
}

// Totals sums the tallies across the week.
func (t WeekTally) Totals() DayTally {
	var total DayTally
	for _, day := range t.Days {
		total.Office += day.Office
		total.Remote += day.Remote
		total.Offsite += day.Offsite
		total.Holiday += day.Holiday
	}
	return total
}

// NotificationConfig is the process-wide notification settings record.
type NotificationConfig struct {
	TeamsWebhookURL string
}

// Enabled reports whether a webhook is configured.
func (c NotificationConfig) Enabled() bool {
	return strings.TrimSpace(c.TeamsWebhookURL) != ""
}

// Notification is the payload handed to a NotificationSink.
type Notification struct {
	Text string `json:"text"`
}

// DaysInput carries raw day values from a submission request.
type DaysInput struct {
	Monday    string `json:"monday" validate:"required,attendance_status"`
	Tuesday   string `json:"tuesday" validate:"required,attendance_status"`
	Wednesday string `json:"wednesday" validate:"required,attendance_status"`
	Thursday  string `json:"thursday" validate:"required,attendance_status"`
	Friday    string `json:"friday" validate:"required,attendance_status"`
}

// SubmitAttendanceParams is a raw submission request.
type SubmitAttendanceParams struct {
	UserID     string    `json:"userId" validate:"required"`
	UserName   string    `json:"userName" validate:"required"`
	Credential string    `json:"password" validate:"required"`
	Week       string    `json:"week" validate:"required"`
	Days       DaysInput `json:"days"`
}

// SubmitResult reports the outcome of a successful submission.
type SubmitResult struct {
	Record       AttendanceRecord
	AllSubmitted bool
	Message      string
}

// ReminderResult reports the outcome of a scheduled reminder.
type ReminderResult struct {
	Week           week.Key
	Sent           bool
	Message        string
	SubmittedCount int
	PendingCount   int
}
