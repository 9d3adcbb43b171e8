package studyhub

import (
	"context"
	"time"
)

// Tx is storage as seen from inside one transaction.
type Tx interface {
	CountMembers(ctx context.Context, sessionID int64) (int, error)
	// Membership returns nil, nil when the user is not a member.
	Membership(ctx context.Context, sessionID int64, userID string) (*Membership, error)
	// InsertMembership fails with ErrAlreadyMember when (session, user) exists.
	InsertMembership(ctx context.Context, m *Membership) error
	DeleteMembership(ctx context.Context, sessionID int64, userID string) (bool, error)

	// Waitlist returns the session's queue oldest first.
	Waitlist(ctx context.Context, sessionID int64) ([]WaitlistEntry, error)
	// WaitlistEntry returns nil, nil when the user is not queued.
	WaitlistEntry(ctx context.Context, sessionID int64, userID string) (*WaitlistEntry, error)
	// InsertWaitlistEntry sets e.ID and fails with ErrAlreadyWaitlisted when
	// (session, user) exists.
	InsertWaitlistEntry(ctx context.Context, e *WaitlistEntry) error
	DeleteWaitlistEntry(ctx context.Context, sessionID int64, userID string) (bool, error)

	UpdateSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, sessionID int64) error
	SetSubjects(ctx context.Context, sessionID int64, subjectIDs []int64) error
	InsertMessage(ctx context.Context, m *Message) error
}

// Reader holds the non-transactional queries.
type Reader interface {
	// Sessions returns every session with its subjects, ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)
	// Session fails with ErrSessionNotFound for an unknown id.
	Session(ctx context.Context, id int64) (*Session, error)
	// SessionsOf returns the sessions the user is a member of, hosted ones included.
	SessionsOf(ctx context.Context, userID string) ([]*Session, error)
	Members(ctx context.Context, sessionID int64) ([]Membership, error)
	Waitlist(ctx context.Context, sessionID int64) ([]WaitlistEntry, error)
	Messages(ctx context.Context, sessionID int64) ([]Message, error)
	Subjects(ctx context.Context, level EducationLevel) ([]Subject, error)

	// User returns nil, nil for an unknown id.
	User(ctx context.Context, id string) (*User, error)
	// UpsertUser creates the user or refreshes username and email, keeping the
	// stored role and education level.
	UpsertUser(ctx context.Context, u *User) (*User, error)

	// MarkReminder records that the occurrence starting at start was announced.
	// It returns false when it already was.
	MarkReminder(ctx context.Context, sessionID int64, start time.Time) (bool, error)
}

type Store interface {
	Reader
	// Create inserts s, setting its ID, and runs fn in the same transaction.
	Create(ctx context.Context, s *Session, fn func(tx Tx) error) error
	// Update locks the session row, loads it and runs fn in one transaction.
	// It returns ErrSessionNotFound when the session does not exist.
	Update(ctx context.Context, sessionID int64, fn func(tx Tx, s *Session) error) error
}
