package studyhub

import "time"

const (
	day = 24 * time.Hour

	// maxAdvance bounds how far a recurring session is walked forward from its
	// original start. Anything beyond it has no resolvable next occurrence.
	maxAdvance = 5 * 365 * day

	// monthStep is a fixed 30 days, not a calendar month.
	monthStep = 30 * day
)

// Step returns the distance between two consecutive occurrences, or false
// when the recurrence kind has no step.
func Step(kind RecurrenceKind, interval int) (time.Duration, bool) {
	if interval < 1 {
		interval = 1
	}
	n := time.Duration(interval)
	switch kind {
	case RecurrenceDaily:
		return n * day, true
	case RecurrenceWeekly:
		return n * 7 * day, true
	case RecurrenceMonthly:
		return n * monthStep, true
	default:
		return 0, false
	}
}

// NextOccurrence returns the first occurrence of s that has not fully passed
// at ref. The second result is false when the session is over: a one-off that
// already ended, a series past its recurrence end, or a series that cannot
// reach ref within five years of its first start.
func NextOccurrence(s *Session, ref time.Time) (Occurrence, bool) {
	if !s.Recurs() {
		if s.EndTime != nil {
			if !s.EndTime.Before(ref) {
				return Occurrence{Start: s.StartTime, End: s.EndTime}, true
			}
			return Occurrence{}, false
		}
		if !s.StartTime.Before(ref) {
			return Occurrence{Start: s.StartTime}, true
		}
		return Occurrence{}, false
	}

	step, ok := Step(s.Recurrence, s.Interval)
	if !ok {
		return Occurrence{}, false
	}

	current := s.StartTime
	for current.Before(ref) {
		current = current.Add(step)
		if current.Sub(s.StartTime) > maxAdvance {
			return Occurrence{}, false
		}
	}

	if s.RecurrenceEnd != nil && current.After(*s.RecurrenceEnd) {
		return Occurrence{}, false
	}

	occ := Occurrence{Start: current}
	if d, ok := s.Duration(); ok {
		end := current.Add(d)
		occ.End = &end
	}
	return occ, true
}
