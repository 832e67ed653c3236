package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	var seenLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = RequestIDFromContext(r.Context())
		seenLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	})

	recorder := httptest.NewRecorder()
	RequestLogger(base)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users", nil))

	if seenID == "" || !seenLogger {
		t.Fatalf("expected request id and logger in context")
	}
	if recorder.Header().Get("X-Request-ID") != seenID {
		t.Fatalf("expected response header to echo request id")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and completion records, got %d", len(lines))
	}
	var completed map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &completed); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if completed["request_id"] != seenID || completed["path"] != "/users" || completed["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected completion record %v", completed)
	}
}

func TestRequestLogger_UniqueIDs(t *testing.T) {
	t.Parallel()

	ids := make(map[string]struct{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := RequestIDFromContext(r.Context())
		ids[id] = struct{}{}
	})
	handler := RequestLogger(discardLogger())(next)
	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/weeks", nil))
	}
	if len(ids) != 5 {
		t.Fatalf("expected unique ids, got %d", len(ids))
	}
}

func TestRequireCronSecret_Disabled(t *testing.T) {
	t.Parallel()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	RequireCronSecret("  ", discardLogger())(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/weekly-reminder", nil))
	if !called {
		t.Fatalf("expected blank secret to leave the endpoint open")
	}
}
