package studyhub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestStep(t *testing.T) {
	tests := []struct {
		kind     RecurrenceKind
		interval int
		want     time.Duration
		ok       bool
	}{
		{RecurrenceDaily, 1, 24 * time.Hour, true},
		{RecurrenceDaily, 3, 72 * time.Hour, true},
		{RecurrenceWeekly, 2, 14 * 24 * time.Hour, true},
		{RecurrenceMonthly, 1, 30 * 24 * time.Hour, true},
		{RecurrenceWeekly, 0, 7 * 24 * time.Hour, true},
		{RecurrenceNone, 1, 0, false},
		{"yearly", 1, 0, false},
	}
	for _, tt := range tests {
		got, ok := Step(tt.kind, tt.interval)
		require.Equal(t, tt.ok, ok, "%s/%d", tt.kind, tt.interval)
		require.Equal(t, tt.want, got, "%s/%d", tt.kind, tt.interval)
	}
}

func TestNextOccurrenceOneOff(t *testing.T) {
	req := require.New(t)
	s := &Session{StartTime: base, EndTime: timePtr(base.Add(2 * time.Hour))}

	occ, ok := NextOccurrence(s, base.Add(-time.Hour))
	req.True(ok)
	req.Equal(base, occ.Start)

	// still running counts as upcoming
	occ, ok = NextOccurrence(s, base.Add(time.Hour))
	req.True(ok)
	req.Equal(base, occ.Start)

	_, ok = NextOccurrence(s, base.Add(3*time.Hour))
	req.False(ok)

	noEnd := &Session{StartTime: base}
	_, ok = NextOccurrence(noEnd, base.Add(time.Minute))
	req.False(ok)
	_, ok = NextOccurrence(noEnd, base)
	req.True(ok)
}

func TestNextOccurrenceIgnoresKindWhenNotRecurring(t *testing.T) {
	s := &Session{StartTime: base, Recurrence: RecurrenceDaily, Interval: 1}
	_, ok := NextOccurrence(s, base.Add(36*time.Hour))
	require.False(t, ok)
}

func TestNextOccurrenceDaily(t *testing.T) {
	req := require.New(t)
	s := &Session{
		StartTime:   base,
		EndTime:     timePtr(base.Add(90 * time.Minute)),
		IsRecurring: true,
		Recurrence:  RecurrenceDaily,
		Interval:    1,
	}

	occ, ok := NextOccurrence(s, base.Add(84*time.Hour))

	req.True(ok)
	req.Equal(base.Add(96*time.Hour), occ.Start)
	req.NotNil(occ.End)
	req.Equal(base.Add(96*time.Hour+90*time.Minute), *occ.End)
}

func TestNextOccurrenceBiweekly(t *testing.T) {
	s := &Session{StartTime: base, IsRecurring: true, Recurrence: RecurrenceWeekly, Interval: 2}

	occ, ok := NextOccurrence(s, base.Add(7*24*time.Hour))

	require.True(t, ok)
	require.Equal(t, base.Add(14*24*time.Hour), occ.Start)
	require.Nil(t, occ.End)
}

func TestNextOccurrenceBeforeFirstStart(t *testing.T) {
	s := &Session{StartTime: base, IsRecurring: true, Recurrence: RecurrenceMonthly, Interval: 1}
	occ, ok := NextOccurrence(s, base.Add(-48*time.Hour))
	require.True(t, ok)
	require.Equal(t, base, occ.Start)
}

func TestNextOccurrenceRecurrenceEnd(t *testing.T) {
	req := require.New(t)
	s := &Session{
		StartTime:     base,
		IsRecurring:   true,
		Recurrence:    RecurrenceWeekly,
		Interval:      1,
		RecurrenceEnd: timePtr(base.Add(14 * 24 * time.Hour)),
	}

	occ, ok := NextOccurrence(s, base.Add(8*24*time.Hour))
	req.True(ok)
	req.Equal(base.Add(14*24*time.Hour), occ.Start)

	_, ok = NextOccurrence(s, base.Add(15*24*time.Hour))
	req.False(ok)
}

func TestNextOccurrenceIsIdempotent(t *testing.T) {
	s := &Session{StartTime: base, IsRecurring: true, Recurrence: RecurrenceDaily, Interval: 3}
	ref := base.Add(100 * time.Hour)

	first, ok := NextOccurrence(s, ref)
	require.True(t, ok)
	second, ok := NextOccurrence(s, first.Start)
	require.True(t, ok)
	require.Equal(t, first.Start, second.Start)
}

func TestNextOccurrenceFiveYearCap(t *testing.T) {
	s := &Session{StartTime: base, IsRecurring: true, Recurrence: RecurrenceDaily, Interval: 1}

	_, ok := NextOccurrence(s, base.Add(4*365*24*time.Hour))
	require.True(t, ok)

	_, ok = NextOccurrence(s, base.Add(6*365*24*time.Hour))
	require.False(t, ok)
}
