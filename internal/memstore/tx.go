package memstore

import (
	"context"

	"github.com/samber/lo"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

// tx operates on the store's state directly; the caller holds the mutex.
type tx struct {
	m *Store
}

func (t *tx) CountMembers(ctx context.Context, sessionID int64) (int, error) {
	return len(t.m.st.members[sessionID]), nil
}

func (t *tx) Membership(ctx context.Context, sessionID int64, userID string) (*studyhub.Membership, error) {
	mm, ok := lo.Find(t.m.st.members[sessionID], func(mm studyhub.Membership) bool { return mm.UserID == userID })
	if !ok {
		return nil, nil
	}
	return &mm, nil
}

func (t *tx) InsertMembership(ctx context.Context, mm *studyhub.Membership) error {
	if existing, _ := t.Membership(ctx, mm.SessionID, mm.UserID); existing != nil {
		return studyhub.ErrAlreadyMember
	}
	t.m.st.members[mm.SessionID] = append(t.m.st.members[mm.SessionID], *mm)
	return nil
}

func (t *tx) DeleteMembership(ctx context.Context, sessionID int64, userID string) (bool, error) {
	before := t.m.st.members[sessionID]
	after := lo.Reject(before, func(mm studyhub.Membership, _ int) bool { return mm.UserID == userID })
	t.m.st.members[sessionID] = after
	return len(after) < len(before), nil
}

func (t *tx) Waitlist(ctx context.Context, sessionID int64) ([]studyhub.WaitlistEntry, error) {
	return append([]studyhub.WaitlistEntry{}, t.m.st.waitlist[sessionID]...), nil
}

func (t *tx) WaitlistEntry(ctx context.Context, sessionID int64, userID string) (*studyhub.WaitlistEntry, error) {
	e, ok := lo.Find(t.m.st.waitlist[sessionID], func(e studyhub.WaitlistEntry) bool { return e.UserID == userID })
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *tx) InsertWaitlistEntry(ctx context.Context, e *studyhub.WaitlistEntry) error {
	if existing, _ := t.WaitlistEntry(ctx, e.SessionID, e.UserID); existing != nil {
		return studyhub.ErrAlreadyWaitlisted
	}
	t.m.st.nextEntry++
	e.ID = t.m.st.nextEntry
	t.m.st.waitlist[e.SessionID] = append(t.m.st.waitlist[e.SessionID], *e)
	return nil
}

func (t *tx) DeleteWaitlistEntry(ctx context.Context, sessionID int64, userID string) (bool, error) {
	before := t.m.st.waitlist[sessionID]
	after := lo.Reject(before, func(e studyhub.WaitlistEntry, _ int) bool { return e.UserID == userID })
	t.m.st.waitlist[sessionID] = after
	return len(after) < len(before), nil
}

func (t *tx) UpdateSession(ctx context.Context, s *studyhub.Session) error {
	if _, ok := t.m.st.sessions[s.ID]; !ok {
		return studyhub.ErrSessionNotFound
	}
	stored := *s
	stored.Subjects = nil
	t.m.st.sessions[s.ID] = stored
	return nil
}

func (t *tx) DeleteSession(ctx context.Context, sessionID int64) error {
	st := t.m.st
	delete(st.sessions, sessionID)
	delete(st.members, sessionID)
	delete(st.waitlist, sessionID)
	delete(st.messages, sessionID)
	delete(st.sessionSubjects, sessionID)
	for k := range st.reminders {
		if k.sessionID == sessionID {
			delete(st.reminders, k)
		}
	}
	return nil
}

// SetSubjects silently drops ids that are not in the catalog.
func (t *tx) SetSubjects(ctx context.Context, sessionID int64, subjectIDs []int64) error {
	known := lo.Filter(lo.Uniq(subjectIDs), func(id int64, _ int) bool {
		return lo.ContainsBy(t.m.subjects, func(s studyhub.Subject) bool { return s.ID == id })
	})
	t.m.st.sessionSubjects[sessionID] = known
	return nil
}

func (t *tx) InsertMessage(ctx context.Context, msg *studyhub.Message) error {
	t.m.st.nextMessage++
	msg.ID = t.m.st.nextMessage
	t.m.st.messages[msg.SessionID] = append(t.m.st.messages[msg.SessionID], *msg)
	return nil
}
