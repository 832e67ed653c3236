package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/office-attendance/internal/application"
)

var (
	errBadRequestBody = errors.New("Invalid request body")
	errBodyTooLarge   = errors.New("Request body too large")
	errMissingSecret  = errors.New("Missing or invalid cron secret")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError renders a transport level failure that never reached a service.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, kind string, err error) {
	message := http.StatusText(status)
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	r.writeJSON(ctx, w, status, errorResponse{Error: message, ErrorKind: kind})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, "unexpected", errors.New("unknown error"))
		return
	}

	kind := application.ErrorKind(err)
	status := statusForKind(kind)
	response := errorResponse{Error: messageForError(err), ErrorKind: kind}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) && len(vErr.FieldErrors) > 0 {
		response.Errors = vErr.FieldErrors
	}

	r.writeJSON(ctx, w, status, response)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusForKind(kind string) int {
	switch kind {
	case "invalid_input":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "notification_failure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageForError(err error) string {
	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, application.ErrUnauthorized):
		return "Incorrect password"
	case errors.Is(err, application.ErrNotFound):
		return "User not found"
	case errors.Is(err, application.ErrNotificationsDisabled):
		return "Teams webhook URL not configured"
	case errors.Is(err, application.ErrNotificationFailed):
		return "Failed to send notification"
	case errors.Is(err, application.ErrStorage):
		return "Storage unavailable"
	default:
		return "Internal server error"
	}
}

type errorResponse struct {
	Error     string            `json:"error"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}
