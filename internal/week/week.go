// Package week computes Monday-anchored working week keys in a fixed timezone.
package week

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Europe/London must resolve on hosts without a zoneinfo database.
)

// DefaultTimezone is the zone used to resolve "now" into a calendar date.
const DefaultTimezone = "Europe/London"

// Layout is the wire format of a week key.
const Layout = "2006-01-02"

// ErrInvalidKey indicates a week key string could not be parsed.
var ErrInvalidKey = errors.New("week: invalid key")

// Key identifies a working week by its Monday. The zero value is not a valid key.
type Key struct {
	year  int
	month time.Month
	day   int
}

// LoadLocation resolves the named zone, falling back to DefaultTimezone when name is blank.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}

// ParseKey parses a YYYY-MM-DD string. Dates that are not Mondays are normalized to the
// Monday of the same week.
func ParseKey(value string) (Key, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, value)
	}
	return mondayOf(t), nil
}

// MustParseKey is ParseKey for constants and tests.
func MustParseKey(value string) Key {
	k, err := ParseKey(value)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyOf returns the key of the week containing t, read as a calendar date in loc.
// Saturdays and Sundays belong to the week that started on the preceding Monday.
func KeyOf(t time.Time, loc *time.Location) Key {
	if loc != nil {
		t = t.In(loc)
	}
	return mondayOf(civil(t))
}

// CurrentWorkingWeek returns this week's Monday on weekdays and the upcoming Monday on weekends.
func CurrentWorkingWeek(now time.Time, loc *time.Location) Key {
	if loc != nil {
		now = now.In(loc)
	}
	date := civil(now)
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return nextMonday(date)
	default:
		return mondayOf(date)
	}
}

// NextWorkingWeek returns the first Monday strictly after the local date of now. From Monday to
// Thursday that is a full week ahead of the current week; from Friday to Sunday it is the nearest
// upcoming Monday.
func NextWorkingWeek(now time.Time, loc *time.Location) Key {
	if loc != nil {
		now = now.In(loc)
	}
	return nextMonday(civil(now))
}

// Time returns midnight UTC of the Monday.
func (k Key) Time() time.Time {
	return time.Date(k.year, k.month, k.day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String formats the key as YYYY-MM-DD.
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return k.Time().Format(Layout)
}

// Shift moves the key by n weeks.
func (k Key) Shift(n int) Key {
	return fromTime(k.Time().AddDate(0, 0, 7*n))
}

// Dates returns Monday through Friday of the week.
func (k Key) Dates() [5]time.Time {
	var out [5]time.Time
	monday := k.Time()
	for i := range out {
		out[i] = monday.AddDate(0, 0, i)
	}
	return out
}

// Friday returns the last working day of the week.
func (k Key) Friday() time.Time {
	return k.Time().AddDate(0, 0, 4)
}

// DisplayRange renders the Monday to Friday range, e.g. "Week of Jun 3 - Jun 7, 2024".
func (k Key) DisplayRange() string {
	return fmt.Sprintf("Week of %s - %s", k.Time().Format("Jan 2"), k.Friday().Format("Jan 2, 2006"))
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mondayOf(date time.Time) Key {
	offset := (int(date.Weekday()) + 6) % 7
	return fromTime(date.AddDate(0, 0, -offset))
}

func nextMonday(date time.Time) Key {
	days := (8 - int(date.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return fromTime(date.AddDate(0, 0, days))
}

func fromTime(t time.Time) Key {
	y, m, d := t.Date()
	return Key{year: y, month: m, day: d}
}
