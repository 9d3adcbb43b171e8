package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newSession(t *testing.T, m *Store, start time.Time) *studyhub.Session {
	t.Helper()
	s := &studyhub.Session{Title: "Algebra", OwnerID: "host", StartTime: start, Capacity: 3}
	err := m.Create(context.Background(), s, func(tx studyhub.Tx) error {
		return tx.InsertMembership(context.Background(), &studyhub.Membership{SessionID: s.ID, UserID: "host", Role: studyhub.RoleHost})
	})
	require.NoError(t, err)
	return s
}

func TestNewAssignsSubjectIDs(t *testing.T) {
	req := require.New(t)
	m := New(studyhub.Catalog())

	all, err := m.Subjects(context.Background(), "")
	req.NoError(err)
	req.Len(all, len(studyhub.Catalog()))
	req.EqualValues(1, all[0].ID)

	phd, err := m.Subjects(context.Background(), studyhub.PhD)
	req.NoError(err)
	req.NotEmpty(phd)
	for _, s := range phd {
		req.Equal(studyhub.PhD, s.EducationLevel)
	}
}

func TestCreateRollsBackOnError(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	boom := errors.New("boom")

	s := &studyhub.Session{Title: "x", StartTime: now}
	err := m.Create(context.Background(), s, func(tx studyhub.Tx) error {
		_ = tx.InsertMembership(context.Background(), &studyhub.Membership{SessionID: s.ID, UserID: "host"})
		return boom
	})

	req.ErrorIs(err, boom)
	_, err = m.Session(context.Background(), s.ID)
	req.ErrorIs(err, studyhub.ErrSessionNotFound)
	members, _ := m.Members(context.Background(), s.ID)
	req.Empty(members)

	// the id counter was rolled back too
	again := newSession(t, m, now)
	req.Equal(s.ID, again.ID)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	ctx := context.Background()
	s := newSession(t, m, now)

	err := m.Update(ctx, s.ID, func(tx studyhub.Tx, sess *studyhub.Session) error {
		req.NoError(tx.InsertMembership(ctx, &studyhub.Membership{SessionID: sess.ID, UserID: "bob"}))
		req.NoError(tx.InsertWaitlistEntry(ctx, &studyhub.WaitlistEntry{SessionID: sess.ID, UserID: "carol"}))
		return studyhub.ErrSessionFull
	})

	req.ErrorIs(err, studyhub.ErrSessionFull)
	members, _ := m.Members(ctx, s.ID)
	req.Len(members, 1)
	queue, _ := m.Waitlist(ctx, s.ID)
	req.Empty(queue)
}

func TestUpdateUnknownSession(t *testing.T) {
	m := New(nil)
	called := false
	err := m.Update(context.Background(), 42, func(studyhub.Tx, *studyhub.Session) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, studyhub.ErrSessionNotFound)
	require.False(t, called)
}

func TestUniqueKeys(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	ctx := context.Background()
	s := newSession(t, m, now)

	err := m.Update(ctx, s.ID, func(tx studyhub.Tx, sess *studyhub.Session) error {
		req.ErrorIs(tx.InsertMembership(ctx, &studyhub.Membership{SessionID: sess.ID, UserID: "host"}), studyhub.ErrAlreadyMember)

		first := &studyhub.WaitlistEntry{SessionID: sess.ID, UserID: "bob", AddedAt: now}
		req.NoError(tx.InsertWaitlistEntry(ctx, first))
		req.NotZero(first.ID)
		req.ErrorIs(tx.InsertWaitlistEntry(ctx, &studyhub.WaitlistEntry{SessionID: sess.ID, UserID: "bob"}), studyhub.ErrAlreadyWaitlisted)

		ok, err := tx.DeleteWaitlistEntry(ctx, sess.ID, "bob")
		req.NoError(err)
		req.True(ok)
		ok, err = tx.DeleteWaitlistEntry(ctx, sess.ID, "bob")
		req.NoError(err)
		req.False(ok)
		return nil
	})
	req.NoError(err)
}

func TestDeleteSessionCascades(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	ctx := context.Background()
	s := newSession(t, m, now)
	_, err := m.MarkReminder(ctx, s.ID, now)
	req.NoError(err)

	err = m.Update(ctx, s.ID, func(tx studyhub.Tx, sess *studyhub.Session) error {
		req.NoError(tx.InsertWaitlistEntry(ctx, &studyhub.WaitlistEntry{SessionID: sess.ID, UserID: "bob"}))
		req.NoError(tx.InsertMessage(ctx, &studyhub.Message{SessionID: sess.ID, UserID: "host", Text: "hi"}))
		return tx.DeleteSession(ctx, sess.ID)
	})
	req.NoError(err)

	_, err = m.Session(ctx, s.ID)
	req.ErrorIs(err, studyhub.ErrSessionNotFound)
	members, _ := m.Members(ctx, s.ID)
	req.Empty(members)
	queue, _ := m.Waitlist(ctx, s.ID)
	req.Empty(queue)
	msgs, _ := m.Messages(ctx, s.ID)
	req.Empty(msgs)
	mine, _ := m.SessionsOf(ctx, "host")
	req.Empty(mine)

	fresh, err := m.MarkReminder(ctx, s.ID, now)
	req.NoError(err)
	req.True(fresh)
}

func TestSessionsOrderedByStart(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	late := newSession(t, m, now.Add(2*time.Hour))
	early := newSession(t, m, now)

	all, err := m.Sessions(context.Background())
	req.NoError(err)
	req.Len(all, 2)
	req.Equal(early.ID, all[0].ID)
	req.Equal(late.ID, all[1].ID)

	mine, err := m.SessionsOf(context.Background(), "host")
	req.NoError(err)
	req.Len(mine, 2)
	req.Equal(early.ID, mine[0].ID)
}

func TestSetSubjectsDropsUnknown(t *testing.T) {
	req := require.New(t)
	m := New(studyhub.Catalog()[:3])
	ctx := context.Background()
	s := newSession(t, m, now)

	err := m.Update(ctx, s.ID, func(tx studyhub.Tx, sess *studyhub.Session) error {
		return tx.SetSubjects(ctx, sess.ID, []int64{3, 1, 3, 77})
	})
	req.NoError(err)

	got, err := m.Session(ctx, s.ID)
	req.NoError(err)
	req.Len(got.Subjects, 2)
	req.EqualValues(1, got.Subjects[0].ID)
}

func TestUpsertUserKeepsRole(t *testing.T) {
	req := require.New(t)
	m := New(nil)
	ctx := context.Background()

	_, err := m.UpsertUser(ctx, &studyhub.User{ID: "1", Username: "a", Role: studyhub.UserStudent})
	req.NoError(err)
	m.SetRole("1", studyhub.UserLeader)

	u, err := m.UpsertUser(ctx, &studyhub.User{ID: "1", Username: "b", Role: studyhub.UserStudent})
	req.NoError(err)
	req.Equal(studyhub.UserLeader, u.Role)
	req.Equal("b", u.Username)
}

func TestMarkReminderOnce(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	first, err := m.MarkReminder(ctx, 1, now)
	require.NoError(t, err)
	second, err := m.MarkReminder(ctx, 1, now)
	require.NoError(t, err)
	other, err := m.MarkReminder(ctx, 1, now.Add(24*time.Hour))
	require.NoError(t, err)

	require.True(t, first)
	require.False(t, second)
	require.True(t, other)
}
