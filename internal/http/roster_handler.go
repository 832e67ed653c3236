package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/logging"
	"github.com/example/office-attendance/internal/week"
)

type rosterService interface {
	Directory(ctx context.Context) ([]application.RosterEntry, error)
}

// RosterHandler serves the user picker and the week picker.
type RosterHandler struct {
	roster    rosterService
	clock     *week.Clock
	responder responder
	logger    *slog.Logger
}

func NewRosterHandler(roster rosterService, clock *week.Clock, logger *slog.Logger) *RosterHandler {
	base := logging.OrDefault(logger)
	if clock == nil {
		clock = week.NewClock(nil, nil)
	}
	return &RosterHandler{roster: roster, clock: clock, responder: newResponder(base), logger: base}
}

// Users renders GET /users.
func (h *RosterHandler) Users(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.roster == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entries, err := h.roster.Directory(r.Context())
	if err != nil {
		handlerLogger(r.Context(), h.logger, "RosterHandler", "Users").ErrorContext(r.Context(), "roster listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	users := make([]userDTO, 0, len(entries))
	for _, entry := range entries {
		users = append(users, userDTO{ID: entry.ID, Name: entry.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, users)
}

// Weeks renders GET /weeks.
func (h *RosterHandler) Weeks(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	current, next := h.clock.Current(), h.clock.Next()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, weeksResponse{
		Current:        current.String(),
		CurrentDisplay: current.DisplayRange(),
		Next:           next.String(),
		NextDisplay:    next.DisplayRange(),
	})
}

type userDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type weeksResponse struct {
	Current        string `json:"current"`
	CurrentDisplay string `json:"currentDisplay"`
	Next           string `json:"next"`
	NextDisplay    string `json:"nextDisplay"`
}
