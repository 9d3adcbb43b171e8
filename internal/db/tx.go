package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

// pgTx implements studyhub.Tx on top of one pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) CountMembers(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM session_members WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (t *pgTx) Membership(ctx context.Context, sessionID int64, userID string) (*studyhub.Membership, error) {
	var (
		m    studyhub.Membership
		role string
	)
	err := t.tx.QueryRow(ctx,
		`SELECT session_id, user_id, role, joined_at FROM session_members WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&m.SessionID, &m.UserID, &role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = studyhub.MemberRole(role)
	return &m, nil
}

func (t *pgTx) InsertMembership(ctx context.Context, m *studyhub.Membership) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO session_members (session_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		m.SessionID, m.UserID, string(m.Role), m.JoinedAt,
	)
	if err != nil {
		return mapUnique(err, studyhub.ErrAlreadyMember)
	}
	return nil
}

func (t *pgTx) DeleteMembership(ctx context.Context, sessionID int64, userID string) (bool, error) {
	ct, err := t.tx.Exec(ctx, `DELETE FROM session_members WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *pgTx) Waitlist(ctx context.Context, sessionID int64) ([]studyhub.WaitlistEntry, error) {
	return queryWaitlist(ctx, t.tx, sessionID)
}

func (t *pgTx) WaitlistEntry(ctx context.Context, sessionID int64, userID string) (*studyhub.WaitlistEntry, error) {
	var e studyhub.WaitlistEntry
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, user_id, added_at FROM waitlist_entries WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&e.ID, &e.SessionID, &e.UserID, &e.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (t *pgTx) InsertWaitlistEntry(ctx context.Context, e *studyhub.WaitlistEntry) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO waitlist_entries (session_id, user_id, added_at) VALUES ($1, $2, $3) RETURNING id`,
		e.SessionID, e.UserID, e.AddedAt,
	).Scan(&e.ID)
	if err != nil {
		return mapUnique(err, studyhub.ErrAlreadyWaitlisted)
	}
	return nil
}

func (t *pgTx) DeleteWaitlistEntry(ctx context.Context, sessionID int64, userID string) (bool, error) {
	ct, err := t.tx.Exec(ctx, `DELETE FROM waitlist_entries WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *pgTx) UpdateSession(ctx context.Context, s *studyhub.Session) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE study_sessions SET title = $2, description = $3, start_time = $4, end_time = $5,
			is_virtual = $6, virtual_link = $7, location_text = $8, capacity = $9,
			is_recurring = $10, recurrence_type = $11, recurrence_interval = $12, recurrence_end_date = $13
		 WHERE id = $1`,
		s.ID, s.Title, s.Description, s.StartTime, s.EndTime,
		s.IsVirtual, s.VirtualLink, s.LocationText, s.Capacity,
		s.IsRecurring, string(s.Recurrence), s.Interval, s.RecurrenceEnd,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return studyhub.ErrSessionNotFound
	}
	return nil
}

// DeleteSession relies on ON DELETE CASCADE for members, waitlist,
// messages, subjects and reminder marks.
func (t *pgTx) DeleteSession(ctx context.Context, sessionID int64) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return studyhub.ErrSessionNotFound
	}
	return nil
}

// SetSubjects replaces the session's subjects. Unknown ids are dropped.
func (t *pgTx) SetSubjects(ctx context.Context, sessionID int64, subjectIDs []int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM session_subjects WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	if len(subjectIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO session_subjects (session_id, subject_id)
		 SELECT $1, id FROM subjects WHERE id = ANY($2)
		 ON CONFLICT DO NOTHING`,
		sessionID, subjectIDs,
	)
	return err
}

func (t *pgTx) InsertMessage(ctx context.Context, m *studyhub.Message) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO messages (session_id, user_id, text, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.SessionID, m.UserID, m.Text, m.CreatedAt,
	).Scan(&m.ID)
}
