package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/office-attendance/internal/week"
)

func TestAggregator_BuildWeeklyView(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	wk := week.MustParseKey("2024-06-03")
	h := newHarness([]User{carol, alice, bob}, nil)
	_ = h.attendance.UpsertAttendance(ctx, AttendanceRecord{UserID: bob.ID, UserName: "Bob", Week: wk, Days: toDaySchedule(allDays(StatusOffice))})
	_ = h.attendance.UpsertAttendance(ctx, AttendanceRecord{UserID: alice.ID, UserName: "Alice", Week: wk.Shift(1), Days: toDaySchedule(allDays(StatusOffice))})
	// a record for a user no longer on the roster must not add an entry
	_ = h.attendance.UpsertAttendance(ctx, AttendanceRecord{UserID: "u-gone", UserName: "Gone", Week: wk, Days: toDaySchedule(allDays(StatusOffice))})

	view, err := h.aggregator.BuildWeeklyView(ctx, wk)
	if err != nil {
		t.Fatalf("BuildWeeklyView returned error: %v", err)
	}
	if view.Week != wk {
		t.Fatalf("unexpected week %s", view.Week)
	}
	if len(view.Entries) != 3 {
		t.Fatalf("expected one entry per roster user, got %d", len(view.Entries))
	}

	seen := make(map[string]bool)
	for i, want := range []string{alice.ID, bob.ID, carol.ID} {
		entry := view.Entries[i]
		if entry.UserID != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, entry.UserID)
		}
		if seen[entry.UserID] {
			t.Fatalf("duplicate entry for %s", entry.UserID)
		}
		seen[entry.UserID] = true
	}
	if view.Entries[0].Record != nil || view.Entries[2].Record != nil {
		t.Fatalf("expected nil records for users without a submission this week")
	}
	if view.Entries[1].Record == nil || view.Entries[1].Record.Days.Monday != StatusOffice {
		t.Fatalf("expected Bob's record to be attached")
	}
}

func TestAggregator_BuildWeeklyView_StorageFailure(t *testing.T) {
	t.Parallel()

	h := newHarness([]User{alice}, nil)
	h.attendance.listErr = errBackend
	_, err := h.aggregator.BuildWeeklyView(context.Background(), week.MustParseKey("2024-06-03"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAggregator_PendingUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	wk := week.MustParseKey("2024-06-03")
	h := newHarness([]User{alice, bob, carol}, nil)
	_ = h.attendance.UpsertAttendance(ctx, AttendanceRecord{UserID: bob.ID, UserName: "Bob", Week: wk})

	pending, err := h.aggregator.PendingUsers(ctx, wk)
	if err != nil {
		t.Fatalf("PendingUsers returned error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != alice.ID || pending[1].ID != carol.ID {
		t.Fatalf("unexpected pending users %#v", pending)
	}
}

func TestAggregator_TallyAndSummary(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(nil, nil)
	first := AttendanceRecord{Days: DaySchedule{Monday: StatusOffice, Tuesday: StatusOffice, Wednesday: StatusRemote, Thursday: StatusOffice, Friday: StatusHoliday}}
	second := AttendanceRecord{Days: toDaySchedule(allDays(StatusOffice))}
	empty := AttendanceRecord{}

	tally := agg.Tally(first, second, empty)
	if got := tally.Day(Monday); got != (DayTally{Office: 2}) {
		t.Fatalf("unexpected monday tally %#v", got)
	}
	if got := tally.Day(Wednesday); got != (DayTally{Office: 1, Remote: 1}) {
		t.Fatalf("unexpected wednesday tally %#v", got)
	}
	if got := tally.Totals(); got.Total() != 10 || got.Holiday != 1 {
		t.Fatalf("unexpected totals %#v", got)
	}
	if agg.Tally(empty).Totals().Total() != 0 {
		t.Fatalf("expected empty record to contribute nothing")
	}

	tests := []struct {
		name   string
		record *AttendanceRecord
		want   string
	}{
		{name: "nil", record: nil, want: "Not submitted"},
		{name: "empty days", record: &empty, want: "Not submitted"},
		{name: "mixed", record: &first, want: "3 🏢, 1 🏠, 1 🌴"},
		{name: "offsite", record: &AttendanceRecord{Days: DaySchedule{Monday: StatusOffsite, Tuesday: StatusHoliday}}, want: "1 ✈️, 1 🌴"},
	}
	for _, tc := range tests {
		if got := agg.Summary(tc.record); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
