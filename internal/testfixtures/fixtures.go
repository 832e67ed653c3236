package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/week"
)

var userCounter uint64

// Thursday 6 June 2024, 16:00 in London.
var referenceTime = time.Date(2024, time.June, 6, 15, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceWeek is the working week containing ReferenceTime.
func ReferenceWeek() week.Key {
	return week.MustParseKey("2024-06-03")
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic roster member that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID         string
	Name       string
	Credential string
	CreatedAt  time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:         fmt.Sprintf("user-%03d", idx),
		Name:       fmt.Sprintf("User %03d", idx),
		Credential: fmt.Sprintf("secret-%03d", idx),
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserCredential overrides the generated credential.
func WithUserCredential(credential string) UserOption {
	return func(f *UserFixture) {
		f.Credential = credential
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{ID: f.ID, Name: f.Name, Credential: f.Credential}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Name: f.Name, Credential: f.Credential, CreatedAt: f.CreatedAt}
}

// Roster returns Alice, Bob and Carol with credentials equal to their lower-case names.
func Roster() []UserFixture {
	return []UserFixture{
		{ID: "u-alice", Name: "Alice", Credential: "alice", CreatedAt: referenceTime},
		{ID: "u-bob", Name: "Bob", Credential: "bob", CreatedAt: referenceTime},
		{ID: "u-carol", Name: "Carol", Credential: "carol", CreatedAt: referenceTime},
	}
}

// -------------------------- Attendance fixtures --------------------------

// AttendanceFixture represents one user's week of statuses.
type AttendanceFixture struct {
	UserID      string
	UserName    string
	Week        week.Key
	Days        [5]application.Status
	SubmittedAt time.Time
}

// AttendanceOption configures the generated attendance fixture.
type AttendanceOption func(*AttendanceFixture)

// NewAttendanceFixture returns a record for user in ReferenceWeek with every day in the office.
func NewAttendanceFixture(user UserFixture, opts ...AttendanceOption) AttendanceFixture {
	fixture := AttendanceFixture{
		UserID:   user.ID,
		UserName: user.Name,
		Week:     ReferenceWeek(),
		Days: [5]application.Status{
			application.StatusOffice, application.StatusOffice, application.StatusOffice,
			application.StatusOffice, application.StatusOffice,
		},
		SubmittedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWeek overrides the fixture week.
func WithWeek(wk week.Key) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.Week = wk
	}
}

// WithDays sets Monday through Friday.
func WithDays(monday, tuesday, wednesday, thursday, friday application.Status) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.Days = [5]application.Status{monday, tuesday, wednesday, thursday, friday}
	}
}

// WithSubmittedAt overrides the submission timestamp.
func WithSubmittedAt(t time.Time) AttendanceOption {
	return func(f *AttendanceFixture) {
		f.SubmittedAt = t
	}
}

// Application returns the fixture as an application.AttendanceRecord.
func (f AttendanceFixture) Application() application.AttendanceRecord {
	return application.AttendanceRecord{
		UserID:   f.UserID,
		UserName: f.UserName,
		Week:     f.Week,
		Days: application.DaySchedule{
			Monday:    f.Days[0],
			Tuesday:   f.Days[1],
			Wednesday: f.Days[2],
			Thursday:  f.Days[3],
			Friday:    f.Days[4],
		},
		SubmittedAt: f.SubmittedAt,
	}
}

// Persistence returns the fixture as a persistence.AttendanceRecord.
func (f AttendanceFixture) Persistence() persistence.AttendanceRecord {
	return persistence.AttendanceRecord{
		UserID:   f.UserID,
		UserName: f.UserName,
		Week:     f.Week.String(),
		Days: persistence.DayStatuses{
			Monday:    string(f.Days[0]),
			Tuesday:   string(f.Days[1]),
			Wednesday: string(f.Days[2]),
			Thursday:  string(f.Days[3]),
			Friday:    string(f.Days[4]),
		},
		SubmittedAt: f.SubmittedAt,
	}
}

// Params builds the submission request that would produce this record.
func (f AttendanceFixture) Params(credential string) application.SubmitAttendanceParams {
	return application.SubmitAttendanceParams{
		UserID:     f.UserID,
		UserName:   f.UserName,
		Credential: credential,
		Week:       f.Week.String(),
		Days: application.DaysInput{
			Monday:    string(f.Days[0]),
			Tuesday:   string(f.Days[1]),
			Wednesday: string(f.Days[2]),
			Thursday:  string(f.Days[3]),
			Friday:    string(f.Days[4]),
		},
	}
}
