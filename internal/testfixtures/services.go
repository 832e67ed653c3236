package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/office-attendance/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// a deterministic clock.
type ServiceFactory struct {
	Clock    *Clock
	Location *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{Clock: NewClock(time.Time{})}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLocation overrides the zone used to resolve working weeks.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// ServiceDeps captures the ports the attendance services depend on.
type ServiceDeps struct {
	Users      application.UserDirectory
	Attendance application.AttendanceRepository
	Settings   application.SettingsProvider
	Sink       application.NotificationSink
	Domain     application.StatusDomain
	AppURL     string
	Logger     *slog.Logger
}

// Services bundles the wired application services.
type Services struct {
	Roster      *application.RosterService
	Aggregator  *application.Aggregator
	Notifier    *application.CompletionNotifier
	Submissions *application.SubmissionService
}

// NewServices wires the full service graph using the factory clock.
func (f *ServiceFactory) NewServices(deps ServiceDeps) Services {
	roster := application.NewRosterServiceWithLogger(deps.Users, deps.Logger)
	aggregator := application.NewAggregatorWithLogger(roster, deps.Attendance, deps.Logger)
	notifier := application.NewCompletionNotifierWithLogger(
		aggregator,
		deps.Settings,
		deps.Sink,
		f.Clock.WeekClock(f.Location),
		deps.AppURL,
		deps.Logger,
	)
	submissions := application.NewSubmissionServiceWithLogger(
		roster,
		deps.Attendance,
		notifier,
		deps.Domain,
		f.Clock.NowFunc(),
		deps.Logger,
	)
	return Services{
		Roster:      roster,
		Aggregator:  aggregator,
		Notifier:    notifier,
		Submissions: submissions,
	}
}
