package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/office-attendance/internal/scheduler"
	"github.com/example/office-attendance/internal/week"
)

// Storage drivers accepted by ATTENDANCE_STORAGE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config captures environment driven configuration values for the attendance service.
type Config struct {
	HTTPPort       int
	StorageDriver  string
	SQLiteDSN      string
	MongoURI       string
	MongoDatabase  string
	Timezone       string
	ReminderCron   string
	CronSecret     string
	AppURL         string
	LogLevel       string
	LogFile        string
	LegacyStatuses bool
	WebhookTimeout time.Duration
}

// ReminderEnabled reports whether the in-process reminder job should be scheduled.
func (c Config) ReminderEnabled() bool {
	return c.ReminderCron != ""
}

// Location resolves Timezone. Load has already validated it.
func (c Config) Location() (*time.Location, error) {
	return week.LoadLocation(c.Timezone)
}

// LoadDotEnv loads the given files (".env" when none) into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or invalid variable is reported in a
// single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		StorageDriver:  DriverSQLite,
		SQLiteDSN:      "file:attendance.db",
		MongoDatabase:  "attendance",
		Timezone:       week.DefaultTimezone,
		ReminderCron:   "0 16 * * 4",
		LogLevel:       "info",
		WebhookTimeout: 10 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(env("STORAGE_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverMongo, DriverMemory:
			cfg.StorageDriver = driver
		default:
			invalid = append(invalid, key("STORAGE_DRIVER"))
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.MongoURI = env("MONGO_URI")
	if cfg.StorageDriver == DriverMongo && cfg.MongoURI == "" {
		missing = append(missing, key("MONGO_URI"))
	}
	if database := env("MONGO_DATABASE"); database != "" {
		cfg.MongoDatabase = database
	}

	if tz := env("TIMEZONE"); tz != "" {
		if _, err := week.LoadLocation(tz); err != nil {
			invalid = append(invalid, key("TIMEZONE"))
		} else {
			cfg.Timezone = tz
		}
	}

	if spec, ok := os.LookupEnv(key("REMINDER_CRON")); ok {
		spec = strings.TrimSpace(spec)
		switch {
		case spec == "" || strings.EqualFold(spec, "off"):
			cfg.ReminderCron = ""
		default:
			if _, err := scheduler.ParseSchedule(spec, time.UTC); err != nil {
				invalid = append(invalid, key("REMINDER_CRON"))
			} else {
				cfg.ReminderCron = spec
			}
		}
	}

	cfg.CronSecret = env("CRON_SECRET")

	if appURL := env("APP_URL"); appURL != "" {
		parsed, err := url.Parse(appURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			invalid = append(invalid, key("APP_URL"))
		} else {
			cfg.AppURL = appURL
		}
	}

	if level := strings.ToLower(env("LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, key("LOG_LEVEL"))
		}
	}

	cfg.LogFile = env("LOG_FILE")

	if legacy := env("LEGACY_STATUSES"); legacy != "" {
		enabled, err := strconv.ParseBool(legacy)
		if err != nil {
			invalid = append(invalid, key("LEGACY_STATUSES"))
		} else {
			cfg.LegacyStatuses = enabled
		}
	}

	if timeoutValue := env("WEBHOOK_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, key("WEBHOOK_TIMEOUT"))
		} else {
			cfg.WebhookTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

const envPrefix = "ATTENDANCE_"

func key(name string) string {
	return envPrefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}
