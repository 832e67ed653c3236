package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/office-attendance/internal/week"
)

const (
	messageAllSubmitted = "Attendance submitted! Everyone has now submitted for this week."
	messageSubmitted    = "Attendance submitted successfully!"
)

// AttendanceRepository captures the per-(user, week) storage operations the core needs.
type AttendanceRepository interface {
	// UpsertAttendance atomically replaces the record stored for (record.UserID, record.Week).
	UpsertAttendance(ctx context.Context, record AttendanceRecord) error
	CountForWeek(ctx context.Context, wk week.Key) (int, error)
	// ListForWeek returns records ordered by user name, then user ID.
	ListForWeek(ctx context.Context, wk week.Key) ([]AttendanceRecord, error)
}

// CompletionChecker is notified after every committed submission.
type CompletionChecker interface {
	OnSubmissionCommitted(ctx context.Context, wk week.Key) (bool, error)
}

// SubmissionService validates, authenticates and stores attendance submissions.
type SubmissionService struct {
	roster     *RosterService
	attendance AttendanceRepository
	completion CompletionChecker
	domain     StatusDomain
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

// NewSubmissionService wires dependencies for the submission service using the canonical
// status domain.
func NewSubmissionService(roster *RosterService, attendance AttendanceRepository, completion CompletionChecker, now func() time.Time) *SubmissionService {
	return NewSubmissionServiceWithLogger(roster, attendance, completion, CanonicalStatusDomain, now, nil)
}

// NewSubmissionServiceWithLogger wires dependencies, the accepted status domain and a base
// logger. An empty domain selects CanonicalStatusDomain.
func NewSubmissionServiceWithLogger(roster *RosterService, attendance AttendanceRepository, completion CompletionChecker, domain StatusDomain, now func() time.Time, logger *slog.Logger) *SubmissionService {
	if len(domain) == 0 {
		domain = CanonicalStatusDomain
	}
	if now == nil {
		now = time.Now
	}
	return &SubmissionService{
		roster:     roster,
		attendance: attendance,
		completion: completion,
		domain:     domain,
		validate:   newSubmissionValidator(domain),
		now:        now,
		logger:     defaultLogger(logger),
	}
}

// Domain returns the status domain enforced on writes.
func (s *SubmissionService) Domain() StatusDomain {
	return s.domain
}

// Submit validates params, checks the user's credential, upserts the record and evaluates
// week completion. Validation failures return before any storage access.
func (s *SubmissionService) Submit(ctx context.Context, params SubmitAttendanceParams) (SubmitResult, error) {
	if s == nil || s.roster == nil || s.attendance == nil {
		return SubmitResult{}, fmt.Errorf("submission service not configured")
	}

	normalized := normalizeSubmission(params)
	logger := serviceLogger(ctx, s.logger, "SubmissionService", "Submit", "user_id", normalized.UserID, "week", normalized.Week)

	key, vErr := s.validateSubmission(normalized)
	if vErr.HasErrors() {
		logger.WarnContext(ctx, "submission rejected", "error", vErr, "error_kind", ErrorKind(vErr), "fields", vErr.FieldErrors)
		return SubmitResult{}, vErr
	}

	user, err := s.roster.FindByID(ctx, normalized.UserID)
	if err != nil {
		logger.WarnContext(ctx, "submission user lookup failed", "error", err, "error_kind", ErrorKind(err))
		return SubmitResult{}, err
	}

	if err := VerifyCredential(user.Credential, params.Credential); err != nil {
		if !errors.Is(err, ErrUnauthorized) {
			err = fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		logger.WarnContext(ctx, "submission credential rejected", "error", err, "error_kind", ErrorKind(err))
		return SubmitResult{}, err
	}

	record := AttendanceRecord{
		UserID:      user.ID,
		UserName:    user.Name,
		Week:        key,
		Days:        toDaySchedule(normalized.Days),
		SubmittedAt: s.now(),
	}
	if err := s.attendance.UpsertAttendance(ctx, record); err != nil {
		wrapped := storageError("upsert attendance", err)
		logger.ErrorContext(ctx, "failed to store attendance", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return SubmitResult{}, wrapped
	}
	logger.InfoContext(ctx, "attendance stored")

	allSubmitted := false
	if s.completion != nil {
		allSubmitted, err = s.completion.OnSubmissionCommitted(ctx, key)
		if err != nil {
			logger.ErrorContext(ctx, "completion check failed", "error", err, "error_kind", ErrorKind(err))
			return SubmitResult{}, err
		}
	}

	message := messageSubmitted
	if allSubmitted {
		message = messageAllSubmitted
	}
	return SubmitResult{Record: record, AllSubmitted: allSubmitted, Message: message}, nil
}

func (s *SubmissionService) validateSubmission(params SubmitAttendanceParams) (week.Key, *ValidationError) {
	vErr := &ValidationError{}

	if err := s.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			vErr.add("request", err.Error())
			return week.Key{}, vErr
		}
		for _, fe := range fieldErrs {
			vErr.add(fieldPath(fe.Namespace()), s.fieldMessage(fe))
		}
	}

	var key week.Key
	if _, invalid := vErr.FieldErrors["week"]; !invalid {
		parsed, err := week.ParseKey(params.Week)
		if err != nil {
			vErr.add("week", "must be a date in YYYY-MM-DD format")
		} else {
			key = parsed
		}
	}
	return key, vErr
}

func (s *SubmissionService) fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if strings.HasPrefix(fieldPath(fe.Namespace()), "days.") {
			return fmt.Sprintf("is required; must be %s", s.domain)
		}
		return "is required"
	case "attendance_status":
		return fmt.Sprintf("must be %s", s.domain)
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func newSubmissionValidator(domain StatusDomain) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return domain.Contains(Status(fl.Field().String()))
	})
	return v
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func normalizeSubmission(params SubmitAttendanceParams) SubmitAttendanceParams {
	return SubmitAttendanceParams{
		UserID:     strings.TrimSpace(params.UserID),
		UserName:   strings.TrimSpace(params.UserName),
		Credential: params.Credential,
		Week:       strings.TrimSpace(params.Week),
		Days: DaysInput{
			Monday:    strings.TrimSpace(params.Days.Monday),
			Tuesday:   strings.TrimSpace(params.Days.Tuesday),
			Wednesday: strings.TrimSpace(params.Days.Wednesday),
			Thursday:  strings.TrimSpace(params.Days.Thursday),
			Friday:    strings.TrimSpace(params.Days.Friday),
		},
	}
}

func toDaySchedule(days DaysInput) DaySchedule {
	return DaySchedule{
		Monday:    Status(days.Monday),
		Tuesday:   Status(days.Tuesday),
		Wednesday: Status(days.Wednesday),
		Thursday:  Status(days.Thursday),
		Friday:    Status(days.Friday),
	}
}
