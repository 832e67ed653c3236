package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/office-attendance/internal/week"
)

const (
	messageReminderNotSent = "No submissions yet for next week. Notification not sent."
	messageReminderSent    = "Weekly reminder sent successfully"
)

// DefaultCompletionTimeout bounds the completion check and its webhook call once a submission
// has been committed.
const DefaultCompletionTimeout = 30 * time.Second

// SettingsProvider returns the current notification settings. It returns ErrNotFound when no
// settings record exists.
type SettingsProvider interface {
	NotificationConfig(ctx context.Context) (NotificationConfig, error)
}

// NotificationSink delivers a notification to a webhook.
type NotificationSink interface {
	Send(ctx context.Context, webhookURL string, notification Notification) error
}

// CompletionNotifier announces fully submitted weeks and sends scheduled reminders.
type CompletionNotifier struct {
	aggregator *Aggregator
	settings   SettingsProvider
	sink       NotificationSink
	clock      *week.Clock
	appURL     string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCompletionNotifier wires dependencies for the notifier.
func NewCompletionNotifier(aggregator *Aggregator, settings SettingsProvider, sink NotificationSink, clock *week.Clock, appURL string) *CompletionNotifier {
	return NewCompletionNotifierWithLogger(aggregator, settings, sink, clock, appURL, nil)
}

// NewCompletionNotifierWithLogger wires dependencies and a base logger for the notifier. appURL,
// when set, is linked at the end of reminder messages.
func NewCompletionNotifierWithLogger(aggregator *Aggregator, settings SettingsProvider, sink NotificationSink, clock *week.Clock, appURL string, logger *slog.Logger) *CompletionNotifier {
	if clock == nil {
		clock = week.NewClock(nil, nil)
	}
	return &CompletionNotifier{
		aggregator: aggregator,
		settings:   settings,
		sink:       sink,
		clock:      clock,
		appURL:     appURL,
		timeout:    DefaultCompletionTimeout,
		logger:     defaultLogger(logger),
	}
}

// OnSubmissionCommitted reports whether every roster user has a record for wk and, if so,
// dispatches the completion message. It fires on every completing call; nothing records that a
// week was already announced. Settings and dispatch failures are logged and never returned.
// Cancellation of ctx is ignored: the record is already stored, so the check and the webhook
// call run to completion under their own timeout.
func (n *CompletionNotifier) OnSubmissionCommitted(ctx context.Context, wk week.Key) (bool, error) {
	if n == nil || n.aggregator == nil {
		return false, fmt.Errorf("completion notifier not configured")
	}
	logger := serviceLogger(ctx, n.logger, "CompletionNotifier", "OnSubmissionCommitted", "week", wk.String())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	count, err := n.aggregator.attendance.CountForWeek(ctx, wk)
	if err != nil {
		wrapped := storageError("count attendance", err)
		logger.ErrorContext(ctx, "failed to count submissions", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return false, wrapped
	}
	users, err := n.aggregator.roster.ListUsers(ctx)
	if err != nil {
		return false, err
	}

	if count != len(users) {
		logger.DebugContext(ctx, "week incomplete", "submitted", count, "roster", len(users))
		return false, nil
	}

	cfg, enabled := n.notificationConfig(ctx, logger)
	if !enabled {
		return true, nil
	}

	records, err := n.aggregator.attendance.ListForWeek(ctx, wk)
	if err != nil {
		wrapped := storageError("list attendance", err)
		logger.ErrorContext(ctx, "failed to compose completion message", "error", wrapped, "error_kind", ErrorKind(wrapped))
		return true, nil
	}

	notification := Notification{Text: completionMessage(wk, records)}
	if err := n.send(ctx, cfg, notification); err != nil {
		logger.ErrorContext(ctx, "completion notification failed", "error", err, "error_kind", ErrorKind(err))
		return true, nil
	}
	logger.InfoContext(ctx, "completion notification sent", "submitted", count)
	return true, nil
}

// SendScheduledReminder posts the week's partial summary with the pending users. It is a no-op
// when nobody has submitted, and fails with ErrNotificationsDisabled or ErrNotificationFailed
// when the webhook is missing or rejects the message.
func (n *CompletionNotifier) SendScheduledReminder(ctx context.Context, wk week.Key) (ReminderResult, error) {
	if n == nil || n.aggregator == nil {
		return ReminderResult{}, fmt.Errorf("completion notifier not configured")
	}
	logger := serviceLogger(ctx, n.logger, "CompletionNotifier", "SendScheduledReminder", "week", wk.String())

	users, records, err := n.aggregator.snapshot(ctx, wk, "SendScheduledReminder")
	if err != nil {
		logger.ErrorContext(ctx, "failed to load week", "error", err, "error_kind", ErrorKind(err))
		return ReminderResult{}, err
	}

	if len(records) == 0 {
		logger.InfoContext(ctx, "reminder skipped, no submissions")
		return ReminderResult{Week: wk, Message: messageReminderNotSent, PendingCount: len(users)}, nil
	}

	cfg, err := n.loadConfig(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load notification settings", "error", err, "error_kind", ErrorKind(err))
		return ReminderResult{}, err
	}
	if !cfg.Enabled() {
		logger.ErrorContext(ctx, "reminder not sent", "error", ErrNotificationsDisabled, "error_kind", ErrorKind(ErrNotificationsDisabled))
		return ReminderResult{}, ErrNotificationsDisabled
	}

	pending := pendingFrom(users, records)
	notification := Notification{Text: reminderMessage(wk, records, pending, n.appURL)}
	if err := n.send(ctx, cfg, notification); err != nil {
		logger.ErrorContext(ctx, "reminder notification failed", "error", err, "error_kind", ErrorKind(err))
		return ReminderResult{}, err
	}

	logger.InfoContext(ctx, "reminder sent", "submitted", len(records), "pending", len(pending))
	return ReminderResult{
		Week:           wk,
		Sent:           true,
		Message:        messageReminderSent,
		SubmittedCount: len(records),
		PendingCount:   len(pending),
	}, nil
}

// SendNextWeekReminder sends the reminder for the next working week as seen by the clock.
func (n *CompletionNotifier) SendNextWeekReminder(ctx context.Context) (ReminderResult, error) {
	if n == nil {
		return ReminderResult{}, fmt.Errorf("completion notifier not configured")
	}
	return n.SendScheduledReminder(ctx, n.clock.Next())
}

// loadConfig treats a missing settings record as disabled notifications.
func (n *CompletionNotifier) loadConfig(ctx context.Context) (NotificationConfig, error) {
	if n.settings == nil {
		return NotificationConfig{}, nil
	}
	cfg, err := n.settings.NotificationConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NotificationConfig{}, nil
		}
		return NotificationConfig{}, storageError("load settings", err)
	}
	return cfg, nil
}

func (n *CompletionNotifier) notificationConfig(ctx context.Context, logger *slog.Logger) (NotificationConfig, bool) {
	cfg, err := n.loadConfig(ctx)
	if err != nil {
		logger.WarnContext(ctx, "notification settings unavailable", "error", err, "error_kind", ErrorKind(err))
		return NotificationConfig{}, false
	}
	if !cfg.Enabled() {
		logger.DebugContext(ctx, "notifications disabled")
		return NotificationConfig{}, false
	}
	return cfg, true
}

func (n *CompletionNotifier) send(ctx context.Context, cfg NotificationConfig, notification Notification) error {
	if n.sink == nil {
		return fmt.Errorf("%w: no notification sink", ErrNotificationFailed)
	}
	if err := n.sink.Send(ctx, cfg.TeamsWebhookURL, notification); err != nil {
		if errors.Is(err, ErrNotificationFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}
