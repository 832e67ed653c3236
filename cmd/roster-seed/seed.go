package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/example/office-attendance/internal/application"
	"github.com/example/office-attendance/internal/persistence"
)

// rosterFile is the YAML document accepted by roster-seed.
type rosterFile struct {
	Settings *settingsEntry `yaml:"settings"`
	Users    []userEntry    `yaml:"users"`
}

type settingsEntry struct {
	TeamsWebhookURL string `yaml:"teamsWebhookUrl"`
}

type userEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type seedOptions struct {
	Hash   bool
	Params application.Argon2idParams
	NewID  func() string
	Now    func() time.Time
}

type seedReport struct {
	Created         []string
	Skipped         []string
	SettingsUpdated bool
}

func parseRoster(r io.Reader) (rosterFile, error) {
	var file rosterFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return rosterFile{}, errors.New("roster file is empty")
		}
		return rosterFile{}, fmt.Errorf("parse roster: %w", err)
	}

	var problems []string
	for i, user := range file.Users {
		if strings.TrimSpace(user.Name) == "" {
			problems = append(problems, fmt.Sprintf("users[%d].name is required", i))
		}
		if user.Password == "" {
			problems = append(problems, fmt.Sprintf("users[%d].password is required", i))
		}
	}
	if len(problems) > 0 {
		return rosterFile{}, fmt.Errorf("invalid roster: %s", strings.Join(problems, ", "))
	}
	return file, nil
}

// seed creates every user that does not exist yet and saves the settings record when present.
// Existing users are left untouched.
func seed(ctx context.Context, store persistence.Store, file rosterFile, opts seedOptions, logger *slog.Logger) (seedReport, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Params == (application.Argon2idParams{}) {
		opts.Params = application.DefaultArgon2idParams
	}

	var report seedReport
	for _, entry := range file.Users {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = opts.NewID()
		}

		credential := entry.Password
		if opts.Hash && !application.IsHashedCredential(credential) {
			hashed, err := application.HashCredential(credential, opts.Params)
			if err != nil {
				return report, fmt.Errorf("hash credential for %s: %w", entry.Name, err)
			}
			credential = hashed
		}

		err := store.CreateUser(ctx, persistence.User{
			ID:         id,
			Name:       strings.TrimSpace(entry.Name),
			Credential: credential,
			CreatedAt:  opts.Now().UTC(),
		})
		switch {
		case err == nil:
			report.Created = append(report.Created, id)
			logger.InfoContext(ctx, "user created", "user_id", id, "name", entry.Name, "hashed", opts.Hash)
		case errors.Is(err, persistence.ErrDuplicate):
			report.Skipped = append(report.Skipped, id)
			logger.InfoContext(ctx, "user already exists", "user_id", id)
		default:
			return report, fmt.Errorf("create user %s: %w", entry.Name, err)
		}
	}

	if file.Settings != nil {
		err := store.SaveSettings(ctx, persistence.Settings{
			TeamsWebhookURL: strings.TrimSpace(file.Settings.TeamsWebhookURL),
			UpdatedAt:       opts.Now().UTC(),
		})
		if err != nil {
			return report, fmt.Errorf("save settings: %w", err)
		}
		report.SettingsUpdated = true
		logger.InfoContext(ctx, "notification settings saved", "enabled", file.Settings.TeamsWebhookURL != "")
	}

	return report, nil
}
