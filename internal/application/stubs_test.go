package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/office-attendance/internal/week"
)

type userDirectoryStub struct {
	users   []User
	listErr error
	getErr  error
}

func (s *userDirectoryStub) ListUsers(context.Context) ([]User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]User(nil), s.users...), nil
}

func (s *userDirectoryStub) GetUser(_ context.Context, id string) (User, error) {
	if s.getErr != nil {
		return User{}, s.getErr
	}
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

type attendanceStoreStub struct {
	mu       sync.Mutex
	records  map[string]AttendanceRecord
	upserts  int
	countErr error
	listErr  error
	writeErr error
}

func newAttendanceStoreStub() *attendanceStoreStub {
	return &attendanceStoreStub{records: make(map[string]AttendanceRecord)}
}

func (s *attendanceStoreStub) key(userID string, wk week.Key) string {
	return userID + "|" + wk.String()
}

func (s *attendanceStoreStub) UpsertAttendance(_ context.Context, record AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.upserts++
	s.records[s.key(record.UserID, record.Week)] = record
	return nil
}

func (s *attendanceStoreStub) CountForWeek(_ context.Context, wk week.Key) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	count := 0
	for _, record := range s.records {
		if record.Week == wk {
			count++
		}
	}
	return count, nil
}

func (s *attendanceStoreStub) ListForWeek(_ context.Context, wk week.Key) ([]AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var records []AttendanceRecord
	for _, record := range s.records {
		if record.Week == wk {
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

func (s *attendanceStoreStub) snapshot() map[string]AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]AttendanceRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

type settingsStub struct {
	cfg NotificationConfig
	err error
}

func (s settingsStub) NotificationConfig(context.Context) (NotificationConfig, error) {
	return s.cfg, s.err
}

type recordingSink struct {
	mu   sync.Mutex
	sent []Notification
	urls []string
	err  error
}

// Send fails on a done context the way an HTTP client would.
func (s *recordingSink) Send(ctx context.Context, webhookURL string, notification Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, webhookURL)
	s.sent = append(s.sent, notification)
	return s.err
}

func (s *recordingSink) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSink) last() Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return Notification{}
	}
	return s.sent[len(s.sent)-1]
}

var errBackend = errors.New("backend unavailable")

var fixedNow = time.Date(2024, time.June, 6, 10, 0, 0, 0, time.UTC)

func fixedClock() *week.Clock {
	return week.NewClock(nil, func() time.Time { return fixedNow })
}

const webhookURL = "https://example.test/webhook"

type harness struct {
	users      *userDirectoryStub
	attendance *attendanceStoreStub
	sink       *recordingSink
	roster     *RosterService
	aggregator *Aggregator
	notifier   *CompletionNotifier
	submission *SubmissionService
}

func newHarness(users []User, settings SettingsProvider) *harness {
	h := &harness{
		users:      &userDirectoryStub{users: users},
		attendance: newAttendanceStoreStub(),
		sink:       &recordingSink{},
	}
	h.roster = NewRosterService(h.users)
	h.aggregator = NewAggregator(h.roster, h.attendance)
	h.notifier = NewCompletionNotifier(h.aggregator, settings, h.sink, fixedClock(), "https://attendance.example.test/")
	h.submission = NewSubmissionService(h.roster, h.attendance, h.notifier, func() time.Time { return fixedNow })
	return h
}

func enabledSettings() SettingsProvider {
	return settingsStub{cfg: NotificationConfig{TeamsWebhookURL: webhookURL}}
}

func allDays(status Status) DaysInput {
	s := string(status)
	return DaysInput{Monday: s, Tuesday: s, Wednesday: s, Thursday: s, Friday: s}
}

func submitParams(user User, wk string, days DaysInput) SubmitAttendanceParams {
	return SubmitAttendanceParams{UserID: user.ID, UserName: user.Name, Credential: user.Credential, Week: wk, Days: days}
}

var (
	alice = User{ID: "u-alice", Name: "Alice", Credential: "pw-alice"}
	bob   = User{ID: "u-bob", Name: "Bob", Credential: "pw-bob"}
	carol = User{ID: "u-carol", Name: "Carol", Credential: "pw-carol"}
)
