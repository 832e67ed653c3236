package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/logging"
	"github.com/example/office-attendance/internal/week"
)

// maxSubmissionBytes caps a POST /submit-attendance body.
const maxSubmissionBytes = 64 << 10

type weeklyViewService interface {
	BuildWeeklyView(ctx context.Context, wk week.Key) (application.WeeklyView, error)
	Summary(record *application.AttendanceRecord) string
}

type submissionService interface {
	Submit(ctx context.Context, params application.SubmitAttendanceParams) (application.SubmitResult, error)
}

// AttendanceHandler serves the weekly view and the submission endpoint.
type AttendanceHandler struct {
	views       weeklyViewService
	submissions submissionService
	responder   responder
	logger      *slog.Logger
}

func NewAttendanceHandler(views weeklyViewService, submissions submissionService, logger *slog.Logger) *AttendanceHandler {
	base := logging.OrDefault(logger)
	return &AttendanceHandler{views: views, submissions: submissions, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

// View renders GET /attendance.
func (h *AttendanceHandler) View(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.views == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("week"))
	wk, err := parseWeekQuery(raw)
	if err != nil {
		h.log(r.Context(), "View", "week", raw, "error_kind", application.ErrorKind(err)).ErrorContext(r.Context(), "invalid week parameter", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "View", "week", wk.String())

	view, err := h.views.BuildWeeklyView(r.Context(), wk)
	if err != nil {
		logger.ErrorContext(r.Context(), "weekly view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.DebugContext(r.Context(), "weekly view rendered", "entries", len(view.Entries))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toWeeklyViewDTO(view))
}

// Submit handles POST /submit-attendance.
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.submissions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req application.SubmitAttendanceParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "error_kind", "invalid_input").ErrorContext(r.Context(), "failed to decode submission", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "invalid_input", errBodyTooLarge)
			return
		}
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "invalid_input", errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Submit", "user_id", req.UserID, "week", req.Week)

	result, err := h.submissions.Submit(r.Context(), req)
	if err != nil {
		logger.ErrorContext(r.Context(), "submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendance submitted", "all_submitted", result.AllSubmitted)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, submitResponse{
		Success:      true,
		AllSubmitted: result.AllSubmitted,
		Message:      result.Message,
	})
}

func parseWeekQuery(raw string) (week.Key, error) {
	if raw == "" {
		return week.Key{}, &application.ValidationError{FieldErrors: map[string]string{
			"week": "is required (YYYY-MM-DD format)",
		}}
	}
	wk, err := week.ParseKey(raw)
	if err != nil {
		if errors.Is(err, week.ErrInvalidKey) {
			return week.Key{}, &application.ValidationError{FieldErrors: map[string]string{
				"week": "must be a date in YYYY-MM-DD format",
			}}
		}
		return week.Key{}, err
	}
	return wk, nil
}

type submitResponse struct {
	Success      bool   `json:"success"`
	AllSubmitted bool   `json:"allSubmitted"`
	Message      string `json:"message"`
}

type weeklyViewDTO struct {
	Week       string         `json:"week"`
	Display    string         `json:"display"`
	Attendance []weeklyRowDTO `json:"attendance"`
}

type weeklyRowDTO struct {
	UserID     string               `json:"userId"`
	UserName   string               `json:"userName"`
	Summary    string               `json:"summary"`
	Attendance *attendanceRecordDTO `json:"attendance"`
}

type attendanceRecordDTO struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	Week        string    `json:"week"`
	Days        daysDTO   `json:"days"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type daysDTO struct {
	Monday    application.Status `json:"monday"`
	Tuesday   application.Status `json:"tuesday"`
	Wednesday application.Status `json:"wednesday"`
	Thursday  application.Status `json:"thursday"`
	Friday    application.Status `json:"friday"`
}

func (h *AttendanceHandler) toWeeklyViewDTO(view application.WeeklyView) weeklyViewDTO {
	rows := make([]weeklyRowDTO, 0, len(view.Entries))
	for _, entry := range view.Entries {
		rows = append(rows, weeklyRowDTO{
			UserID:     entry.UserID,
			UserName:   entry.UserName,
			Summary:    h.views.Summary(entry.Record),
			Attendance: toAttendanceRecordDTO(entry.Record),
		})
	}
	return weeklyViewDTO{
		Week:       view.Week.String(),
		Display:    view.Week.DisplayRange(),
		Attendance: rows,
	}
}

func toAttendanceRecordDTO(record *application.AttendanceRecord) *attendanceRecordDTO {
	if record == nil {
		return nil
	}
	return &attendanceRecordDTO{
		UserID:   record.UserID,
		UserName: record.UserName,
		Week:     record.Week.String(),
		Days: daysDTO{
			Monday:    record.Days.Monday,
			Tuesday:   record.Days.Tuesday,
			Wednesday: record.Days.Wednesday,
			Thursday:  record.Days.Thursday,
			Friday:    record.Days.Friday,
		},
		SubmittedAt: record.SubmittedAt.UTC(),
	}
}
