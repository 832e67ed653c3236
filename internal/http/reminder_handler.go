package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/logging"
)

type reminderService interface {
	SendNextWeekReminder(ctx context.Context) (application.ReminderResult, error)
}

// ReminderHandler triggers the weekly reminder on demand, typically from an external cron.
type ReminderHandler struct {
	reminders reminderService
	responder responder
	logger    *slog.Logger
}

func NewReminderHandler(reminders reminderService, logger *slog.Logger) *ReminderHandler {
	base := logging.OrDefault(logger)
	return &ReminderHandler{reminders: reminders, responder: newResponder(base), logger: base}
}

// Send handles GET /weekly-reminder.
func (h *ReminderHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reminders == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "ReminderHandler", "Send")

	result, err := h.reminders.SendNextWeekReminder(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "weekly reminder failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "weekly reminder handled", "week", result.Week.String(), "sent", result.Sent)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reminderResponse{
		Success:        result.Sent,
		Week:           result.Week.String(),
		Message:        result.Message,
		SubmittedCount: result.SubmittedCount,
		PendingCount:   result.PendingCount,
	})
}

type reminderResponse struct {
	Success        bool   `json:"success"`
	Week           string `json:"week"`
	Message        string `json:"message"`
	SubmittedCount int    `json:"submittedCount"`
	PendingCount   int    `json:"pendingCount"`
}
