package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/config"
	"github.com/example/office-attendance/internal/notify"
	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/persistence/memory"
	"github.com/example/office-attendance/internal/testfixtures"
	"github.com/example/office-attendance/internal/week"
)

type webhookRecorder struct {
	mu       sync.Mutex
	messages []string
	server   *httptest.Server
}

func newWebhookRecorder(t *testing.T) *webhookRecorder {
	t.Helper()
	rec := &webhookRecorder{}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload application.Notification
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.messages = append(rec.messages, payload.Text)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(rec.server.Close)
	return rec
}

func (r *webhookRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

type testEnv struct {
	handler http.Handler
	store   persistence.Store
	webhook *webhookRecorder
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	store := memory.New()
	for _, user := range testfixtures.Roster() {
		if err := store.CreateUser(context.Background(), user.Persistence()); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return newTestEnvWithStore(t, cfg, store)
}

func newTestEnvWithStore(t *testing.T, cfg config.Config, store persistence.Store) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	webhook := newWebhookRecorder(t)
	if err := store.SaveSettings(ctx, persistence.Settings{TeamsWebhookURL: webhook.server.URL}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	a := newApp(cfg, store, notify.NewTeamsWebhook(webhook.server.Client(), logger), clock.WeekClock(nil), logger)
	return &testEnv{handler: a.handler, store: store, webhook: webhook}
}

func (e *testEnv) do(t *testing.T, method, target, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, httptest.NewRequest(method, target, reader))
	if out != nil {
		if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, recorder.Body.String(), err)
		}
	}
	return recorder.Code
}

func submission(userID, userName, password, monday, tuesday, wednesday, thursday, friday string) string {
	payload := map[string]any{
		"userId":   userID,
		"userName": userName,
		"password": password,
		"week":     "2024-06-10",
		"days": map[string]string{
			"monday": monday, "tuesday": tuesday, "wednesday": wednesday,
			"thursday": thursday, "friday": friday,
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

type submitBody struct {
	Success      bool   `json:"success"`
	AllSubmitted bool   `json:"allSubmitted"`
	Message      string `json:"message"`
	ErrorKind    string `json:"error_kind"`
}

func TestAttendanceFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t, config.Config{AppURL: "https://attendance.example.test"})

	var users []map[string]string
	if code := env.do(t, http.MethodGet, "/users", "", &users); code != http.StatusOK || len(users) != 3 {
		t.Fatalf("unexpected roster %d %v", code, users)
	}

	var weeks map[string]string
	env.do(t, http.MethodGet, "/weeks", "", &weeks)
	if weeks["next"] != "2024-06-10" {
		t.Fatalf("expected next week 2024-06-10, got %v", weeks)
	}

	var reminder map[string]any
	env.do(t, http.MethodGet, "/weekly-reminder", "", &reminder)
	if reminder["success"] != false || reminder["message"] != "No submissions yet for next week. Notification not sent." {
		t.Fatalf("expected no-op reminder, got %v", reminder)
	}
	if len(env.webhook.all()) != 0 {
		t.Fatalf("expected no webhook call without submissions")
	}

	var resp submitBody
	code := env.do(t, http.MethodPost, "/submit-attendance", submission("u-alice", "Alice", "alice", "office", "office", "remote", "office", "holiday"), &resp)
	if code != http.StatusOK || !resp.Success || resp.AllSubmitted || resp.Message != "Attendance submitted successfully!" {
		t.Fatalf("unexpected alice response %d %+v", code, resp)
	}
	code = env.do(t, http.MethodPost, "/submit-attendance", submission("u-bob", "Bob", "bob", "remote", "remote", "remote", "office", "offsite"), &resp)
	if code != http.StatusOK || resp.AllSubmitted {
		t.Fatalf("unexpected bob response %d %+v", code, resp)
	}

	env.do(t, http.MethodGet, "/weekly-reminder", "", &reminder)
	if reminder["success"] != true || reminder["submittedCount"] != float64(2) || reminder["pendingCount"] != float64(1) {
		t.Fatalf("unexpected reminder %v", reminder)
	}
	messages := env.webhook.all()
	if len(messages) != 1 {
		t.Fatalf("expected one webhook message, got %d", len(messages))
	}
	for _, want := range []string{
		"**Week of 10 June - 14 June 2024**",
		"🏢 Office: Alice",
		"✈️ Offsite: Bob",
		"⏳ Haven't submitted yet: Carol",
		"📅 View full schedule: https://attendance.example.test",
	} {
		if !strings.Contains(messages[0], want) {
			t.Fatalf("reminder missing %q:\n%s", want, messages[0])
		}
	}

	code = env.do(t, http.MethodPost, "/submit-attendance", submission("u-carol", "Carol", "carol", "holiday", "holiday", "holiday", "holiday", "holiday"), &resp)
	if code != http.StatusOK || !resp.AllSubmitted || resp.Message != "Attendance submitted! Everyone has now submitted for this week." {
		t.Fatalf("unexpected carol response %d %+v", code, resp)
	}
	messages = env.webhook.all()
	if len(messages) != 2 || !strings.HasPrefix(messages[1], "✅ Everyone has submitted for week of 10 Jun-14 Jun 2024!") {
		t.Fatalf("expected completion message, got %v", messages)
	}

	var view struct {
		Week       string `json:"week"`
		Attendance []struct {
			UserName   string          `json:"userName"`
			Summary    string          `json:"summary"`
			Attendance json.RawMessage `json:"attendance"`
		} `json:"attendance"`
	}
	env.do(t, http.MethodGet, "/attendance?week=2024-06-10", "", &view)
	if view.Week != "2024-06-10" || len(view.Attendance) != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Attendance[0].UserName != "Alice" || view.Attendance[0].Summary != "3 🏢, 1 🏠, 1 🌴" {
		t.Fatalf("unexpected alice row %+v", view.Attendance[0])
	}
}

func TestAttendanceFlow_RejectsBeforeWriting(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	ctx := context.Background()

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{
			name:   "wrong password",
			body:   submission("u-alice", "Alice", "nope", "office", "office", "office", "office", "office"),
			status: http.StatusUnauthorized,
			kind:   "unauthorized",
		},
		{
			name:   "unknown user",
			body:   submission("u-zed", "Zed", "zed", "office", "office", "office", "office", "office"),
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "invalid status",
			body:   submission("u-alice", "Alice", "alice", "office", "office", "office", "office", "beach"),
			status: http.StatusBadRequest,
			kind:   "invalid_input",
		},
	}

	for _, tc := range tests {
		var resp submitBody
		if code := env.do(t, http.MethodPost, "/submit-attendance", tc.body, &resp); code != tc.status || resp.ErrorKind != tc.kind {
			t.Fatalf("%s: expected %d %s, got %d %+v", tc.name, tc.status, tc.kind, code, resp)
		}
	}

	count, err := env.store.CountForWeek(ctx, "2024-06-10")
	if err != nil || count != 0 {
		t.Fatalf("expected no records, got %d %v", count, err)
	}
}

func TestAttendanceFlow_CompletionSurvivesClientDisconnect(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	var resp submitBody
	for _, fixture := range testfixtures.Roster()[:2] {
		body := submission(fixture.ID, fixture.Name, fixture.Credential, "office", "office", "remote", "remote", "holiday")
		if code := env.do(t, http.MethodPost, "/submit-attendance", body, &resp); code != http.StatusOK || resp.AllSubmitted {
			t.Fatalf("submit %s: got %d %+v", fixture.Name, code, resp)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := submission("u-carol", "Carol", "carol", "office", "office", "office", "office", "office")
	req := httptest.NewRequest(http.MethodPost, "/submit-attendance", strings.NewReader(body)).WithContext(ctx)
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", recorder.Code, recorder.Body.String())
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil || !resp.AllSubmitted {
		t.Fatalf("expected completion, got %+v (%v)", resp, err)
	}
	messages := env.webhook.all()
	if len(messages) != 1 || !strings.Contains(messages[0], "Everyone has submitted") {
		t.Fatalf("expected one completion message, got %q", messages)
	}
}

func TestAttendanceFlow_RejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	body := `{"userId":"u-alice","password":"alice","week":"2024-06-10","userName":"` + strings.Repeat("a", 70<<10) + `"}`
	var resp submitBody
	if code := env.do(t, http.MethodPost, "/submit-attendance", body, &resp); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d %+v", code, resp)
	}
	if resp.ErrorKind != "invalid_input" {
		t.Fatalf("expected invalid_input, got %+v", resp)
	}
	if count, _ := env.store.CountForWeek(context.Background(), "2024-06-10"); count != 0 {
		t.Fatalf("expected nothing stored, got %d", count)
	}
}

func TestAttendanceFlow_LegacyStatuses(t *testing.T) {
	env := newTestEnv(t, config.Config{LegacyStatuses: true})

	var resp submitBody
	code := env.do(t, http.MethodPost, "/submit-attendance", submission("u-alice", "Alice", "alice", "office", "office", "office", "office", "offsite"), &resp)
	if code != http.StatusBadRequest {
		t.Fatalf("expected offsite to be rejected by the legacy domain, got %d", code)
	}
}

func TestAttendanceFlow_CronSecret(t *testing.T) {
	env := newTestEnv(t, config.Config{CronSecret: "s3cret"})

	var body map[string]any
	if code := env.do(t, http.MethodGet, "/weekly-reminder", "", &body); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", code)
	}
}

func TestAttendanceFlow_SQLiteBackend(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedRoster(t, testfixtures.Roster()...)
	env := newTestEnvWithStore(t, config.Config{}, harness.Storage)

	var resp submitBody
	for i, fixture := range testfixtures.Roster() {
		body := submission(fixture.ID, fixture.Name, fixture.Credential, "office", "remote", "offsite", "holiday", "office")
		if code := env.do(t, http.MethodPost, "/submit-attendance", body, &resp); code != http.StatusOK {
			t.Fatalf("submit %s: got %d %+v", fixture.Name, code, resp)
		}
		if resp.AllSubmitted != (i == 2) {
			t.Fatalf("submit %s: unexpected completion flag %+v", fixture.Name, resp)
		}
	}

	// Resubmitting replaces the record and announces completion again.
	body := submission("u-bob", "Bob", "bob", "holiday", "holiday", "holiday", "holiday", "holiday")
	if code := env.do(t, http.MethodPost, "/submit-attendance", body, &resp); code != http.StatusOK || !resp.AllSubmitted {
		t.Fatalf("resubmit: got %d %+v", code, resp)
	}

	count, err := harness.Attendance.CountForWeek(context.Background(), "2024-06-10")
	if err != nil || count != 3 {
		t.Fatalf("expected three records, got %d %v", count, err)
	}
	stored, err := harness.Attendance.GetAttendance(context.Background(), "u-bob", "2024-06-10")
	if err != nil || stored.Days.Monday != "holiday" {
		t.Fatalf("expected replaced record, got %+v %v", stored, err)
	}
	if got := len(env.webhook.all()); got != 2 {
		t.Fatalf("expected a completion message per completing submission, got %d", got)
	}
}

func TestOpenStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("sqlite is migrated on open", func(t *testing.T) {
		cfg := config.Config{StorageDriver: config.DriverSQLite, SQLiteDSN: filepath.Join(t.TempDir(), "attendance.db")}
		opened, err := openStore(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		defer opened.Close()

		if err := opened.CreateUser(ctx, testfixtures.Roster()[0].Persistence()); err != nil {
			t.Fatalf("expected migrated schema, got %v", err)
		}
	})

	t.Run("memory", func(t *testing.T) {
		opened, err := openStore(ctx, config.Config{StorageDriver: config.DriverMemory}, logger)
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		defer opened.Close()
		if _, ok := opened.(*memory.Storage); !ok {
			t.Fatalf("expected memory storage, got %T", opened)
		}
	})
}

func TestAdapters_MapNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	if _, err := newUserDirectoryAdapter(store).GetUser(ctx, "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application.ErrNotFound, got %v", err)
	}
	if _, err := newSettingsProviderAdapter(store).NotificationConfig(ctx); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application.ErrNotFound for missing settings, got %v", err)
	}

	_, err := toApplicationRecord(persistence.AttendanceRecord{UserID: "u", Week: "garbage"})
	if !errors.Is(err, week.ErrInvalidKey) {
		t.Fatalf("expected invalid key error, got %v", err)
	}
}
