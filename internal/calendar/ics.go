// Package calendar renders sessions as iCalendar (RFC 5545) documents.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

const stampLayout = "20060102T150405Z"

var freq = map[studyhub.RecurrenceKind]string{
	studyhub.RecurrenceDaily:   "DAILY",
	studyhub.RecurrenceWeekly:  "WEEKLY",
	studyhub.RecurrenceMonthly: "MONTHLY",
}

// Render returns a VCALENDAR with one VEVENT for s. organizer may be nil.
func Render(s *studyhub.Session, organizer *studyhub.User, now time.Time) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(fmt.Sprintf(format, args...))
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//StudyHub//EN")
	line("CALSCALE:GREGORIAN")
	line("BEGIN:VEVENT")
	line("UID:session-%d@studyhub", s.ID)
	line("DTSTAMP:%s", stamp(now))
	line("DTSTART:%s", stamp(s.StartTime))
	if s.EndTime != nil {
		line("DTEND:%s", stamp(*s.EndTime))
	}
	if rule := RRule(s); rule != "" {
		line("RRULE:%s", rule)
	}
	line("SUMMARY:%s", escape(s.Title))
	line("DESCRIPTION:%s", escape(description(s)))
	location := s.LocationText
	if s.IsVirtual {
		location = s.VirtualLink
	}
	line("LOCATION:%s", escape(location))
	if organizer != nil {
		line("ORGANIZER;CN=%s:MAILTO:%s", escape(organizer.Username), organizer.Email)
	}
	line("END:VEVENT")
	line("END:VCALENDAR")
	return b.String()
}

// RRule returns the recurrence rule value, or "" for one-off sessions.
func RRule(s *studyhub.Session) string {
	if !s.Recurs() {
		return ""
	}
	f, ok := freq[s.Recurrence]
	if !ok {
		return ""
	}
	parts := []string{"FREQ=" + f, fmt.Sprintf("INTERVAL=%d", max(s.Interval, 1))}
	if s.RecurrenceEnd != nil {
		parts = append(parts, "UNTIL="+stamp(*s.RecurrenceEnd))
	}
	return strings.Join(parts, ";")
}

// Filename is the attachment name offered for download.
func Filename(s *studyhub.Session) string {
	return fmt.Sprintf("session_%d.ics", s.ID)
}

func description(s *studyhub.Session) string {
	text := strings.Join(strings.Fields(s.Description), " ")
	names := lo.Map(s.Subjects, func(sub studyhub.Subject, _ int) string { return sub.Name })
	return strings.TrimSpace(text + " Subjects: " + strings.Join(names, ", "))
}

func stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

var escaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escape(s string) string {
	return escaper.Replace(s)
}
