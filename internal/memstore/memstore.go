// Package memstore keeps studyhub state in process memory. It backs the
// server when no database is configured and the tests of the layers above.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

type reminderKey struct {
	sessionID int64
	start     int64
}

type state struct {
	sessions        map[int64]studyhub.Session
	members         map[int64][]studyhub.Membership
	waitlist        map[int64][]studyhub.WaitlistEntry
	messages        map[int64][]studyhub.Message
	sessionSubjects map[int64][]int64
	users           map[string]studyhub.User
	reminders       map[reminderKey]struct{}

	nextSession int64
	nextEntry   int64
	nextMessage int64
}

func (s *state) clone() *state {
	return &state{
		sessions:        cloneMap(s.sessions),
		members:         cloneSlices(s.members),
		waitlist:        cloneSlices(s.waitlist),
		messages:        cloneSlices(s.messages),
		sessionSubjects: cloneSlices(s.sessionSubjects),
		users:           cloneMap(s.users),
		reminders:       cloneMap(s.reminders),
		nextSession:     s.nextSession,
		nextEntry:       s.nextEntry,
		nextMessage:     s.nextMessage,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlices[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = append([]V(nil), v...)
	}
	return out
}

// Store is a studyhub.Store guarded by a single mutex. A transaction holds
// the mutex for its whole callback and is rolled back by restoring a
// snapshot when the callback fails.
type Store struct {
	mu       sync.Mutex
	st       *state
	subjects []studyhub.Subject
}

var _ studyhub.Store = (*Store)(nil)

// New returns an empty store seeded with subjects; ids are assigned in order.
func New(subjects []studyhub.Subject) *Store {
	seeded := make([]studyhub.Subject, len(subjects))
	for i, sub := range subjects {
		sub.ID = int64(i + 1)
		seeded[i] = sub
	}
	return &Store{
		subjects: seeded,
		st: &state{
			sessions:        map[int64]studyhub.Session{},
			members:         map[int64][]studyhub.Membership{},
			waitlist:        map[int64][]studyhub.WaitlistEntry{},
			messages:        map[int64][]studyhub.Message{},
			sessionSubjects: map[int64][]int64{},
			users:           map[string]studyhub.User{},
			reminders:       map[reminderKey]struct{}{},
		},
	}
}

func (m *Store) Create(ctx context.Context, s *studyhub.Session, fn func(tx studyhub.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.clone()
	m.st.nextSession++
	s.ID = m.st.nextSession
	stored := *s
	stored.Subjects = nil
	m.st.sessions[s.ID] = stored

	if err := fn(&tx{m: m}); err != nil {
		m.st = snap
		return err
	}
	return nil
}

func (m *Store) Update(ctx context.Context, sessionID int64, fn func(tx studyhub.Tx, s *studyhub.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.st.sessions[sessionID]
	if !ok {
		return studyhub.ErrSessionNotFound
	}
	snap := m.st.clone()
	sess := m.withSubjects(stored)
	if err := fn(&tx{m: m}, &sess); err != nil {
		m.st = snap
		return err
	}
	return nil
}

func (m *Store) withSubjects(s studyhub.Session) studyhub.Session {
	ids := m.st.sessionSubjects[s.ID]
	s.Subjects = lo.Filter(m.subjects, func(sub studyhub.Subject, _ int) bool {
		return lo.Contains(ids, sub.ID)
	})
	return s
}

func (m *Store) Sessions(ctx context.Context) ([]*studyhub.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*studyhub.Session, 0, len(m.st.sessions))
	for _, s := range m.st.sessions {
		s := m.withSubjects(s)
		out = append(out, &s)
	}
	sortSessions(out)
	return out, nil
}

func sortSessions(out []*studyhub.Session) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
}

func (m *Store) Session(ctx context.Context, id int64) (*studyhub.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.st.sessions[id]
	if !ok {
		return nil, studyhub.ErrSessionNotFound
	}
	s = m.withSubjects(s)
	return &s, nil
}

func (m *Store) SessionsOf(ctx context.Context, userID string) ([]*studyhub.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*studyhub.Session
	for id, members := range m.st.members {
		if !lo.ContainsBy(members, func(mm studyhub.Membership) bool { return mm.UserID == userID }) {
			continue
		}
		s := m.withSubjects(m.st.sessions[id])
		out = append(out, &s)
	}
	sortSessions(out)
	return out, nil
}

func (m *Store) Members(ctx context.Context, sessionID int64) ([]studyhub.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]studyhub.Membership{}, m.st.members[sessionID]...), nil
}

func (m *Store) Waitlist(ctx context.Context, sessionID int64) ([]studyhub.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]studyhub.WaitlistEntry{}, m.st.waitlist[sessionID]...), nil
}

func (m *Store) Messages(ctx context.Context, sessionID int64) ([]studyhub.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]studyhub.Message{}, m.st.messages[sessionID]...), nil
}

func (m *Store) Subjects(ctx context.Context, level studyhub.EducationLevel) ([]studyhub.Subject, error) {
	if level == "" {
		return append([]studyhub.Subject{}, m.subjects...), nil
	}
	return lo.Filter(m.subjects, func(s studyhub.Subject, _ int) bool { return s.EducationLevel == level }), nil
}

// User returns nil, nil for an unknown id.
func (m *Store) User(ctx context.Context, id string) (*studyhub.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Store) UpsertUser(ctx context.Context, u *studyhub.User) (*studyhub.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.st.users[u.ID]
	if !ok {
		stored = *u
	} else {
		stored.Username = u.Username
		stored.Email = u.Email
	}
	m.st.users[u.ID] = stored
	return &stored, nil
}

func (m *Store) MarkReminder(ctx context.Context, sessionID int64, start time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := reminderKey{sessionID: sessionID, start: start.UnixNano()}
	if _, ok := m.st.reminders[key]; ok {
		return false, nil
	}
	m.st.reminders[key] = struct{}{}
	return true, nil
}

// SetRole changes a user's role. There is no API for it; admins are promoted
// out of band.
func (m *Store) SetRole(id string, role studyhub.UserRole) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.st.users[id]; ok {
		u.Role = role
		m.st.users[id] = u
	}
}
