package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/config"
	httptransport "github.com/example/office-attendance/internal/http"
	"github.com/example/office-attendance/internal/logging"
	"github.com/example/office-attendance/internal/notify"
	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/persistence/memory"
	"github.com/example/office-attendance/internal/persistence/mongo"
	"github.com/example/office-attendance/internal/persistence/sqlite"
	"github.com/example/office-attendance/internal/scheduler"
	"github.com/example/office-attendance/internal/week"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		bootstrap.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		bootstrap.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("attendance service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolve timezone: %w", err)
	}

	sink := notify.NewTeamsWebhook(&http.Client{Timeout: cfg.WebhookTimeout}, logger)
	svc := newApp(cfg, store, sink, week.NewClock(loc, time.Now), logger)

	if cfg.ReminderEnabled() {
		job, err := scheduler.NewReminderJob(cfg.ReminderCron, loc, svc.notifier, logger)
		if err != nil {
			return err
		}
		job.Start()
		defer func() {
			<-job.Stop().Done()
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("attendance API listening", "addr", server.Addr, "storage", cfg.StorageDriver, "timezone", loc.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// store is a storage backend that can prepare its own schema.
type store interface {
	persistence.Store
	Migrate(ctx context.Context) error
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	var (
		opened store
		err    error
	)
	switch cfg.StorageDriver {
	case config.DriverMongo:
		opened, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case config.DriverMemory:
		opened = memory.New()
	default:
		opened, err = sqlite.Open(cfg.SQLiteDSN, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}

	if err := opened.Migrate(ctx); err != nil {
		_ = opened.Close()
		return nil, fmt.Errorf("migrate %s storage: %w", cfg.StorageDriver, err)
	}
	return opened, nil
}

type app struct {
	handler     http.Handler
	notifier    *application.CompletionNotifier
	submissions *application.SubmissionService
}

func newApp(cfg config.Config, backend persistence.Store, sink application.NotificationSink, clock *week.Clock, logger *slog.Logger) app {
	domain := application.CanonicalStatusDomain
	if cfg.LegacyStatuses {
		domain = application.LegacyStatusDomain
	}

	users := newUserDirectoryAdapter(backend)
	attendance := newAttendanceRepositoryAdapter(backend)
	settings := newSettingsProviderAdapter(backend)

	roster := application.NewRosterServiceWithLogger(users, logger)
	aggregator := application.NewAggregatorWithLogger(roster, attendance, logger)
	notifier := application.NewCompletionNotifierWithLogger(aggregator, settings, sink, clock, cfg.AppURL, logger)
	submissions := application.NewSubmissionServiceWithLogger(roster, attendance, notifier, domain, clock.Now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Attendance: httptransport.NewAttendanceHandler(aggregator, submissions, logger),
		Roster:     httptransport.NewRosterHandler(roster, clock, logger),
		Reminders:  httptransport.NewReminderHandler(notifier, logger),
		CronSecret: cfg.CronSecret,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return app{handler: router, notifier: notifier, submissions: submissions}
}
