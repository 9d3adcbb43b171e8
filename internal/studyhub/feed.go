package studyhub

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

type DateRange string

const (
	AnyDate   DateRange = ""
	Today     DateRange = "today"
	Tomorrow  DateRange = "tomorrow"
	ThisWeek  DateRange = "week"
	ThisMonth DateRange = "month"
)

// ParseDateRange maps the feed's date parameter. Unknown values disable the filter.
func ParseDateRange(raw string) DateRange {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(raw))); r {
	case Today, Tomorrow, ThisWeek, ThisMonth:
		return r
	default:
		return AnyDate
	}
}

type SessionType string

const (
	AnyType  SessionType = ""
	Virtual  SessionType = "virtual"
	InPerson SessionType = "in-person"
)

// ParseSessionType maps the feed's session_type parameter. Unknown values disable the filter.
func ParseSessionType(raw string) SessionType {
	switch t := SessionType(strings.ToLower(strings.TrimSpace(raw))); t {
	case Virtual, InPerson:
		return t
	default:
		return AnyType
	}
}

var referenceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseReferenceTime reads the browser-supplied local_datetime. Values without an
// offset are read in now's location; anything unparsable falls back to now.
func ParseReferenceTime(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t
		}
	}
	return now
}

type FeedQuery struct {
	Text  string
	Range DateRange
	Type  SessionType
}

// FeedItem pairs a session with its resolved occurrence. DisplayStart and
// DisplayEnd differ from the stored times whenever the session recurs.
type FeedItem struct {
	Session      *Session   `json:"session"`
	DisplayStart time.Time  `json:"display_start"`
	DisplayEnd   *time.Time `json:"display_end,omitempty"`
}

func (q FeedQuery) matchesType(s *Session) bool {
	switch q.Type {
	case Virtual:
		return s.IsVirtual
	case InPerson:
		return !s.IsVirtual
	default:
		return true
	}
}

func (q FeedQuery) matchesText(s *Session) bool {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), needle) || strings.Contains(strings.ToLower(s.Description), needle) {
		return true
	}
	return lo.SomeBy(s.Subjects, func(sub Subject) bool {
		return strings.Contains(strings.ToLower(sub.Name), needle)
	})
}

// civilDate truncates t to its calendar date as seen in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (q FeedQuery) matchesRange(start, ref time.Time) bool {
	loc := ref.Location()
	date := civilDate(start, loc)
	switch q.Range {
	case Today:
		return date.Equal(civilDate(ref, loc))
	case Tomorrow:
		return date.Equal(civilDate(ref.Add(day), loc))
	case ThisWeek:
		return within(date, civilDate(ref, loc), civilDate(ref.Add(7*day), loc))
	case ThisMonth:
		return within(date, civilDate(ref, loc), civilDate(ref.Add(31*day), loc))
	default:
		return true
	}
}

func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

// Filter builds the visible feed: sessions matching the query that still have
// an occurrence at or after ref, ordered by that occurrence's start.
func Filter(sessions []*Session, ref time.Time, q FeedQuery) []FeedItem {
	candidates := lo.Filter(sessions, func(s *Session, _ int) bool {
		return q.matchesType(s) && q.matchesText(s)
	})

	items := make([]FeedItem, 0, len(candidates))
	for _, s := range candidates {
		occ, ok := NextOccurrence(s, ref)
		if !ok {
			continue
		}
		if !q.matchesRange(occ.Start, ref) {
			continue
		}
		items = append(items, FeedItem{Session: s, DisplayStart: occ.Start, DisplayEnd: occ.End})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DisplayStart.Before(items[j].DisplayStart)
	})
	return items
}

// StartingOn counts feed items whose display start falls on ref's calendar date.
func StartingOn(items []FeedItem, ref time.Time) int {
	today := civilDate(ref, ref.Location())
	return lo.CountBy(items, func(it FeedItem) bool {
		return civilDate(it.DisplayStart, ref.Location()).Equal(today)
	})
}
