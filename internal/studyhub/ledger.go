package studyhub

import (
	"context"
	"time"
)

// Ledger enforces capacity on session membership. It only touches the
// membership table; waitlist promotion is the caller's job.
type Ledger struct {
	now func() time.Time
}

func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

func (l *Ledger) Count(ctx context.Context, tx Tx, sessionID int64) (int, error) {
	return tx.CountMembers(ctx, sessionID)
}

// Join adds userID as a member when the session has room.
func (l *Ledger) Join(ctx context.Context, tx Tx, s *Session, userID string) (*Membership, error) {
	existing, err := tx.Membership(ctx, s.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}
	n, err := tx.CountMembers(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if n >= s.Capacity {
		return nil, ErrSessionFull
	}
	return l.insert(ctx, tx, s.ID, userID, RoleMember)
}

// AddHost records the creator as host. It ignores capacity.
func (l *Ledger) AddHost(ctx context.Context, tx Tx, sessionID int64, ownerID string) (*Membership, error) {
	return l.insert(ctx, tx, sessionID, ownerID, RoleHost)
}

// admit adds a member without a capacity check. Only the promoter uses it,
// right after a spot was freed.
func (l *Ledger) admit(ctx context.Context, tx Tx, sessionID int64, userID string) (*Membership, error) {
	return l.insert(ctx, tx, sessionID, userID, RoleMember)
}

func (l *Ledger) insert(ctx context.Context, tx Tx, sessionID int64, userID string, role MemberRole) (*Membership, error) {
	m := &Membership{SessionID: sessionID, UserID: userID, Role: role, JoinedAt: l.now()}
	if err := tx.InsertMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Leave removes userID and returns the number of free spots afterwards.
func (l *Ledger) Leave(ctx context.Context, tx Tx, s *Session, userID string) (int, error) {
	existing, err := tx.Membership(ctx, s.ID, userID)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, ErrNotAMember
	}
	if existing.Role == RoleHost {
		return 0, ErrHostLeave
	}
	deleted, err := tx.DeleteMembership(ctx, s.ID, userID)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return 0, ErrNotAMember
	}
	n, err := tx.CountMembers(ctx, s.ID)
	if err != nil {
		return 0, err
	}
	return s.Capacity - n, nil
}
