// Package scheduler runs the weekly attendance reminder on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/logging"
)

// ErrZonedSpec rejects expressions that carry their own time zone.
var ErrZonedSpec = errors.New("time zone prefix not allowed, set the zone separately")

// DefaultTimeout bounds a single reminder run.
const DefaultTimeout = 2 * time.Minute

// ReminderSender sends the reminder for the upcoming working week.
type ReminderSender interface {
	SendNextWeekReminder(ctx context.Context) (application.ReminderResult, error)
}

// ReminderJob triggers ReminderSender on a standard five field cron expression.
type ReminderJob struct {
	cron     *cron.Cron
	schedule cron.Schedule
	sender   ReminderSender
	logger   *slog.Logger
	timeout  time.Duration
}

// NewReminderJob parses spec in loc and registers the job. Overlapping runs are skipped.
func NewReminderJob(spec string, loc *time.Location, sender ReminderSender, logger *slog.Logger) (*ReminderJob, error) {
	if sender == nil {
		return nil, errors.New("scheduler: reminder sender is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	schedule, err := ParseSchedule(spec, loc)
	if err != nil {
		return nil, err
	}

	job := &ReminderJob{
		schedule: schedule,
		sender:   sender,
		logger:   logger.With("component", "ReminderJob", "schedule", spec, "timezone", loc.String()),
		timeout:  DefaultTimeout,
	}
	cronLogger := cronLogAdapter{logger: job.logger}
	job.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	job.cron.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.timeout)
		defer cancel()
		_ = job.Run(ctx)
	}))
	return job, nil
}

// ParseSchedule parses a standard five field cron expression evaluated in loc. The zone comes
// only from loc, so CRON_TZ= and TZ= prefixes are rejected.
func ParseSchedule(spec string, loc *time.Location) (cron.Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "CRON_TZ=") || strings.HasPrefix(spec, "TZ=") {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, ErrZonedSpec)
	}
	schedule, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %s", loc.String(), spec))
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}
	return schedule, nil
}

// Start begins firing the job in its own goroutine.
func (j *ReminderJob) Start() {
	j.logger.Info("reminder job started", "next_run", j.Next(time.Now()))
	j.cron.Start()
}

// Stop halts the scheduler. The returned context is done once a running reminder has finished.
func (j *ReminderJob) Stop() context.Context {
	return j.cron.Stop()
}

// Next reports the first activation strictly after from.
func (j *ReminderJob) Next(from time.Time) time.Time {
	return j.schedule.Next(from)
}

// Run sends one reminder and logs the outcome.
func (j *ReminderJob) Run(ctx context.Context) error {
	runLogger := j.logger.With("operation", "Run")
	ctx = logging.ContextWithLogger(ctx, runLogger)

	result, err := j.sender.SendNextWeekReminder(ctx)
	if err != nil {
		runLogger.ErrorContext(ctx, "scheduled reminder failed", "error", err, "error_kind", application.ErrorKind(err))
		return err
	}
	runLogger.InfoContext(ctx, "scheduled reminder finished",
		"week", result.Week.String(),
		"sent", result.Sent,
		"submitted", result.SubmittedCount,
		"pending", result.PendingCount,
	)
	return nil
}

// cronLogAdapter routes cron's internal logging through slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
