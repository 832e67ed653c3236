package application

import (
	"fmt"
	"strings"

	"github.com/example/office-attendance/internal/week"
)

type statusGroup struct {
	status Status
	label  string
	icon   string
}

// statusGroups fixes the order groups appear in messages and summaries.
var statusGroups = []statusGroup{
	{status: StatusOffice, label: "Office", icon: "🏢"},
	{status: StatusRemote, label: "Remote", icon: "🏠"},
	{status: StatusOffsite, label: "Offsite", icon: "✈️"},
	{status: StatusHoliday, label: "Holiday", icon: "🌴"},
}

// completionMessage renders the "everyone has submitted" notification. Names inside a group keep
// the order of records.
func completionMessage(wk week.Key, records []AttendanceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Everyone has submitted for week of %s-%s!\n\n",
		wk.Time().Format("2 Jan"), wk.Friday().Format("2 Jan 2006"))

	for _, day := range Weekdays {
		fmt.Fprintf(&b, "**%s:**\n", day)
		writeDayGroups(&b, day, records)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// reminderMessage renders the scheduled summary with the pending list and an optional link.
func reminderMessage(wk week.Key, records []AttendanceRecord, pending []User, appURL string) string {
	var b strings.Builder
	b.WriteString("📋 Attendance Summary for Next Week\n\n")
	fmt.Fprintf(&b, "**Week of %s - %s**\n\n", wk.Time().Format("2 January"), wk.Friday().Format("2 January 2006"))

	for _, day := range Weekdays {
		fmt.Fprintf(&b, "**%s**\n", day)
		writeDayGroups(&b, day, records)
		b.WriteString("\n")
	}

	if len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for _, user := range pending {
			names = append(names, user.Name)
		}
		fmt.Fprintf(&b, "⏳ Haven't submitted yet: %s\n\n", strings.Join(names, ", "))
	}

	if appURL = strings.TrimSpace(appURL); appURL != "" {
		fmt.Fprintf(&b, "📅 View full schedule: %s", appURL)
	}
	return strings.TrimSpace(b.String())
}

func writeDayGroups(b *strings.Builder, day Weekday, records []AttendanceRecord) {
	for _, group := range statusGroups {
		var names []string
		for _, record := range records {
			if record.Days.Day(day) == group.status {
				names = append(names, record.UserName)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(b, "%s %s: %s\n", group.icon, group.label, strings.Join(names, ", "))
		}
	}
}
