package application

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/office-attendance/internal/week"
)

func TestSubmissionService_Submit(t *testing.T) {
	t.Parallel()

	t.Run("stores record with roster name snapshot", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice, bob}, enabledSettings())
		params := submitParams(alice, "2024-06-03", allDays(StatusOffice))
		params.UserName = "Alice Typed Differently"

		result, err := h.submission.Submit(context.Background(), params)
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if result.AllSubmitted || result.Message != "Attendance submitted successfully!" {
			t.Fatalf("unexpected result %#v", result)
		}
		if result.Record.UserName != "Alice" {
			t.Fatalf("expected roster name snapshot, got %q", result.Record.UserName)
		}
		if !result.Record.SubmittedAt.Equal(fixedNow) {
			t.Fatalf("expected SubmittedAt to be the operation time, got %s", result.Record.SubmittedAt)
		}
		if h.sink.calls() != 0 {
			t.Fatalf("expected no notification for an incomplete week")
		}
	})

	t.Run("normalizes week to its monday", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice, bob}, enabledSettings())
		result, err := h.submission.Submit(context.Background(), submitParams(alice, "2024-06-05", allDays(StatusRemote)))
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if result.Record.Week != week.MustParseKey("2024-06-03") {
			t.Fatalf("expected normalized week, got %s", result.Record.Week)
		}
	})

	t.Run("resubmission replaces the record", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice, bob}, enabledSettings())
		ctx := context.Background()
		params := submitParams(alice, "2024-06-03", allDays(StatusOffice))
		for i := 0; i < 2; i++ {
			if _, err := h.submission.Submit(ctx, params); err != nil {
				t.Fatalf("Submit #%d returned error: %v", i+1, err)
			}
		}
		params.Days.Friday = string(StatusHoliday)
		if _, err := h.submission.Submit(ctx, params); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}

		records := h.attendance.snapshot()
		if len(records) != 1 {
			t.Fatalf("expected exactly one record, got %d", len(records))
		}
		for _, record := range records {
			if record.Days.Friday != StatusHoliday || record.Days.Monday != StatusOffice {
				t.Fatalf("expected latest days to win, got %#v", record.Days)
			}
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		_, err := h.submission.Submit(context.Background(), submitParams(User{ID: "ghost", Name: "Ghost", Credential: "x"}, "2024-06-03", allDays(StatusOffice)))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if h.attendance.upserts != 0 {
			t.Fatalf("expected no write")
		}
	})

	t.Run("wrong credential", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		params := submitParams(alice, "2024-06-03", allDays(StatusOffice))
		params.Credential = "pw-bob"
		_, err := h.submission.Submit(context.Background(), params)
		if !errors.Is(err, ErrUnauthorized) || ErrorKind(err) != "unauthorized" {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if h.attendance.upserts != 0 {
			t.Fatalf("expected no write")
		}
	})

	t.Run("hashed credential", func(t *testing.T) {
		t.Parallel()

		hashed, err := HashCredential("pw-hashed", fastArgon2idParams)
		if err != nil {
			t.Fatalf("HashCredential failed: %v", err)
		}
		user := User{ID: "u-h", Name: "Hana", Credential: hashed}
		h := newHarness([]User{user}, enabledSettings())
		params := submitParams(user, "2024-06-03", allDays(StatusOffice))
		params.Credential = "pw-hashed"
		result, err := h.submission.Submit(context.Background(), params)
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if !result.AllSubmitted {
			t.Fatalf("expected single-user roster to complete")
		}
	})

	t.Run("storage failure on write", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		h.attendance.writeErr = errBackend
		_, err := h.submission.Submit(context.Background(), submitParams(alice, "2024-06-03", allDays(StatusOffice)))
		if !errors.Is(err, ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestSubmissionService_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*SubmitAttendanceParams)
		field  string
	}{
		{name: "missing friday", mutate: func(p *SubmitAttendanceParams) { p.Days.Friday = "" }, field: "days.friday"},
		{name: "unknown status", mutate: func(p *SubmitAttendanceParams) { p.Days.Wednesday = "remote-ish" }, field: "days.wednesday"},
		{name: "missing user id", mutate: func(p *SubmitAttendanceParams) { p.UserID = " " }, field: "userId"},
		{name: "missing user name", mutate: func(p *SubmitAttendanceParams) { p.UserName = "" }, field: "userName"},
		{name: "missing credential", mutate: func(p *SubmitAttendanceParams) { p.Credential = "" }, field: "password"},
		{name: "missing week", mutate: func(p *SubmitAttendanceParams) { p.Week = "" }, field: "week"},
		{name: "malformed week", mutate: func(p *SubmitAttendanceParams) { p.Week = "03/06/2024" }, field: "week"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness([]User{alice}, enabledSettings())
			h.users.getErr = errors.New("roster must not be consulted")

			// seed an existing record so "no mutation" is observable
			existing := AttendanceRecord{UserID: alice.ID, UserName: "Alice", Week: week.MustParseKey("2024-06-03"), Days: toDaySchedule(allDays(StatusRemote))}
			_ = h.attendance.UpsertAttendance(context.Background(), existing)
			before := h.attendance.snapshot()

			params := submitParams(alice, "2024-06-03", allDays(StatusOffice))
			tc.mutate(&params)
			_, err := h.submission.Submit(context.Background(), params)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ErrorKind(err) != "invalid_input" {
				t.Fatalf("unexpected kind %q", ErrorKind(err))
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, vErr.FieldErrors)
			}
			if !reflect.DeepEqual(before, h.attendance.snapshot()) || h.attendance.upserts != 1 {
				t.Fatalf("expected store to be unchanged")
			}
		})
	}
}

func TestSubmissionService_StatusDomains(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := func() time.Time { return fixedNow }

	canonical := newHarness([]User{alice, bob}, enabledSettings())
	if _, err := canonical.submission.Submit(ctx, submitParams(alice, "2024-06-03", allDays(StatusOffsite))); err != nil {
		t.Fatalf("expected offsite to be accepted by the canonical domain, got %v", err)
	}

	legacy := newHarness([]User{alice, bob}, enabledSettings())
	svc := NewSubmissionServiceWithLogger(legacy.roster, legacy.attendance, legacy.notifier, LegacyStatusDomain, now, nil)
	_, err := svc.Submit(ctx, submitParams(alice, "2024-06-03", allDays(StatusOffsite)))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected legacy domain to reject offsite, got %v", err)
	}
	if msg := vErr.FieldErrors["days.monday"]; !strings.Contains(msg, "office, remote, or holiday") {
		t.Fatalf("expected message to list the legacy domain, got %q", msg)
	}
}

func TestSubmissionService_Completion(t *testing.T) {
	t.Parallel()

	t.Run("two of three is incomplete, three of three completes", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice, bob, carol}, enabledSettings())
		ctx := context.Background()

		for _, user := range []User{alice, bob} {
			result, err := h.submission.Submit(ctx, submitParams(user, "2024-06-03", allDays(StatusOffice)))
			if err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
			if result.AllSubmitted {
				t.Fatalf("expected incomplete week after %s", user.Name)
			}
		}

		result, err := h.submission.Submit(ctx, submitParams(carol, "2024-06-03", allDays(StatusOffice)))
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if !result.AllSubmitted || result.Message != "Attendance submitted! Everyone has now submitted for this week." {
			t.Fatalf("unexpected result %#v", result)
		}
		if h.sink.calls() != 1 {
			t.Fatalf("expected exactly one notification, got %d", h.sink.calls())
		}
	})

	t.Run("editing a complete week notifies again", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			if _, err := h.submission.Submit(ctx, submitParams(alice, "2024-06-03", allDays(StatusOffice))); err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
		}
		if h.sink.calls() != 2 {
			t.Fatalf("expected a notification per completing submission, got %d", h.sink.calls())
		}
	})

	t.Run("dispatch failure does not fail the submission", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		h.sink.err = errors.New("webhook returned 500")
		result, err := h.submission.Submit(context.Background(), submitParams(alice, "2024-06-03", allDays(StatusOffice)))
		if err != nil {
			t.Fatalf("expected submission to succeed, got %v", err)
		}
		if !result.AllSubmitted {
			t.Fatalf("expected completion to be reported")
		}
	})

	t.Run("count failure surfaces as storage failure", func(t *testing.T) {
		t.Parallel()

		h := newHarness([]User{alice}, enabledSettings())
		h.attendance.countErr = errBackend
		_, err := h.submission.Submit(context.Background(), submitParams(alice, "2024-06-03", allDays(StatusOffice)))
		if !errors.Is(err, ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestSubmissionService_AliceAndBob(t *testing.T) {
	t.Parallel()

	h := newHarness([]User{alice, bob}, enabledSettings())
	ctx := context.Background()

	aliceDays := DaysInput{Monday: "office", Tuesday: "office", Wednesday: "remote", Thursday: "office", Friday: "holiday"}
	result, err := h.submission.Submit(ctx, submitParams(alice, "2024-06-03", aliceDays))
	if err != nil {
		t.Fatalf("Alice submit failed: %v", err)
	}
	if result.AllSubmitted {
		t.Fatalf("expected allSubmitted=false after Alice")
	}

	result, err = h.submission.Submit(ctx, submitParams(bob, "2024-06-03", allDays(StatusOffice)))
	if err != nil {
		t.Fatalf("Bob submit failed: %v", err)
	}
	if !result.AllSubmitted {
		t.Fatalf("expected allSubmitted=true after Bob")
	}

	if h.sink.calls() != 1 {
		t.Fatalf("expected one completion notification, got %d", h.sink.calls())
	}
	if h.sink.urls[0] != webhookURL {
		t.Fatalf("unexpected webhook %q", h.sink.urls[0])
	}

	want := strings.Join([]string{
		"✅ Everyone has submitted for week of 3 Jun-7 Jun 2024!",
		"",
		"**Monday:**",
		"🏢 Office: Alice, Bob",
		"",
		"**Tuesday:**",
		"🏢 Office: Alice, Bob",
		"",
		"**Wednesday:**",
		"🏢 Office: Bob",
		"🏠 Remote: Alice",
		"",
		"**Thursday:**",
		"🏢 Office: Alice, Bob",
		"",
		"**Friday:**",
		"🏢 Office: Bob",
		"🌴 Holiday: Alice",
	}, "\n")
	if got := h.sink.last().Text; got != want {
		t.Fatalf("unexpected completion message:\n%s\nwant:\n%s", got, want)
	}
}
