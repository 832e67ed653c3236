package http

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/week"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type viewServiceStub struct {
	view    application.WeeklyView
	err     error
	gotWeek week.Key
}

func (s *viewServiceStub) BuildWeeklyView(_ context.Context, wk week.Key) (application.WeeklyView, error) {
	s.gotWeek = wk
	if s.err != nil {
		return application.WeeklyView{}, s.err
	}
	view := s.view
	view.Week = wk
	return view, nil
}

func (s *viewServiceStub) Summary(record *application.AttendanceRecord) string {
	if record == nil {
		return "Not submitted"
	}
	return "summary:" + record.UserID
}

type submitterStub struct {
	mu     sync.Mutex
	params []application.SubmitAttendanceParams
	result application.SubmitResult
	err    error
}

func (s *submitterStub) Submit(_ context.Context, params application.SubmitAttendanceParams) (application.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, params)
	return s.result, s.err
}

type reminderStub struct {
	calls  int
	result application.ReminderResult
	err    error
}

func (s *reminderStub) SendNextWeekReminder(context.Context) (application.ReminderResult, error) {
	s.calls++
	return s.result, s.err
}

type rosterStub struct {
	entries []application.RosterEntry
	err     error
}

func (s *rosterStub) Directory(context.Context) ([]application.RosterEntry, error) {
	return s.entries, s.err
}
