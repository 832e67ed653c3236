package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type RouterConfig struct {
	Attendance *AttendanceHandler
	Roster     *RosterHandler
	Reminders  *ReminderHandler
	// CronSecret guards /weekly-reminder when set.
	CronSecret string
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	responder := newResponder(cfg.Logger)

	if cfg.Attendance != nil {
		mux.HandleFunc("/attendance", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(responder, w, r, http.MethodGet)
				return
			}
			cfg.Attendance.View(w, r)
		})
		mux.HandleFunc("/submit-attendance", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(responder, w, r, http.MethodPost)
				return
			}
			cfg.Attendance.Submit(w, r)
		})
	}

	if cfg.Reminders != nil {
		guarded := RequireCronSecret(cfg.CronSecret, cfg.Logger)(http.HandlerFunc(cfg.Reminders.Send))
		mux.HandleFunc("/weekly-reminder", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(responder, w, r, http.MethodGet)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}

	if cfg.Roster != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(responder, w, r, http.MethodGet)
				return
			}
			cfg.Roster.Users(w, r)
		})
		mux.HandleFunc("/weeks", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(responder, w, r, http.MethodGet)
				return
			}
			cfg.Roster.Weeks(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(responder responder, w http.ResponseWriter, r *http.Request, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
}
