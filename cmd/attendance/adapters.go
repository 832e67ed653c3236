package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/persistence"
	"github.com/example/office-attendance/internal/week"
)

type userDirectoryAdapter struct {
	repo persistence.UserRepository
}

func newUserDirectoryAdapter(repo persistence.UserRepository) *userDirectoryAdapter {
	return &userDirectoryAdapter{repo: repo}
}

func (a *userDirectoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userDirectoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	return toApplicationUser(stored), nil
}

type attendanceRepositoryAdapter struct {
	repo persistence.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo persistence.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) UpsertAttendance(ctx context.Context, record application.AttendanceRecord) error {
	return mapPersistenceError(a.repo.UpsertAttendance(ctx, toPersistenceRecord(record)))
}

func (a *attendanceRepositoryAdapter) CountForWeek(ctx context.Context, wk week.Key) (int, error) {
	return a.repo.CountForWeek(ctx, wk.String())
}

func (a *attendanceRepositoryAdapter) ListForWeek(ctx context.Context, wk week.Key) ([]application.AttendanceRecord, error) {
	models, err := a.repo.ListForWeek(ctx, wk.String())
	if err != nil {
		return nil, err
	}
	records := make([]application.AttendanceRecord, 0, len(models))
	for _, model := range models {
		record, err := toApplicationRecord(model)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

type settingsProviderAdapter struct {
	repo persistence.SettingsRepository
}

func newSettingsProviderAdapter(repo persistence.SettingsRepository) *settingsProviderAdapter {
	return &settingsProviderAdapter{repo: repo}
}

func (a *settingsProviderAdapter) NotificationConfig(ctx context.Context) (application.NotificationConfig, error) {
	settings, err := a.repo.GetSettings(ctx)
	if err != nil {
		return application.NotificationConfig{}, mapPersistenceError(err)
	}
	return application.NotificationConfig{TeamsWebhookURL: settings.TeamsWebhookURL}, nil
}

func mapPersistenceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return application.ErrNotFound
	}
	return err
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{ID: model.ID, Name: model.Name, Credential: model.Credential}
}

func toApplicationRecord(model persistence.AttendanceRecord) (application.AttendanceRecord, error) {
	wk, err := week.ParseKey(model.Week)
	if err != nil {
		return application.AttendanceRecord{}, fmt.Errorf("stored record for %s: %w", model.UserID, err)
	}
	return application.AttendanceRecord{
		UserID:   model.UserID,
		UserName: model.UserName,
		Week:     wk,
		Days: application.DaySchedule{
			Monday:    application.Status(model.Days.Monday),
			Tuesday:   application.Status(model.Days.Tuesday),
			Wednesday: application.Status(model.Days.Wednesday),
			Thursday:  application.Status(model.Days.Thursday),
			Friday:    application.Status(model.Days.Friday),
		},
		SubmittedAt: model.SubmittedAt,
	}, nil
}

func toPersistenceRecord(record application.AttendanceRecord) persistence.AttendanceRecord {
	return persistence.AttendanceRecord{
		UserID:   record.UserID,
		UserName: record.UserName,
		Week:     record.Week.String(),
		Days: persistence.DayStatuses{
			Monday:    string(record.Days.Monday),
			Tuesday:   string(record.Days.Tuesday),
			Wednesday: string(record.Days.Wednesday),
			Thursday:  string(record.Days.Thursday),
			Friday:    string(record.Days.Friday),
		},
		SubmittedAt: record.SubmittedAt,
	}
}
