package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

const sessionColumns = `s.id, s.owner_id, s.title, s.description, s.start_time, s.end_time,
	s.is_virtual, s.virtual_link, s.location_text, s.capacity,
	s.is_recurring, s.recurrence_type, s.recurrence_interval, s.recurrence_end_date, s.created_at`

func scanSession(row pgx.Row) (*studyhub.Session, error) {
	var (
		s    studyhub.Session
		kind string
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.StartTime, &s.EndTime,
		&s.IsVirtual, &s.VirtualLink, &s.LocationText, &s.Capacity,
		&s.IsRecurring, &kind, &s.Interval, &s.RecurrenceEnd, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Recurrence = studyhub.RecurrenceKind(kind)
	return &s, nil
}

func querySessions(ctx context.Context, q querier, sql string, args ...any) ([]*studyhub.Session, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*studyhub.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// attachSubjects loads the subjects of all sessions in one query.
func attachSubjects(ctx context.Context, q querier, sessions []*studyhub.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := lo.Map(sessions, func(s *studyhub.Session, _ int) int64 { return s.ID })
	rows, err := q.Query(ctx,
		`SELECT ss.session_id, sub.id, sub.name, sub.slug, sub.education_level, sub.department
		 FROM session_subjects ss JOIN subjects sub ON sub.id = ss.subject_id
		 WHERE ss.session_id = ANY($1)
		 ORDER BY sub.name`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	bySession := lo.KeyBy(sessions, func(s *studyhub.Session) int64 { return s.ID })
	for rows.Next() {
		var (
			sessionID int64
			sub       studyhub.Subject
			level     string
		)
		if err := rows.Scan(&sessionID, &sub.ID, &sub.Name, &sub.Slug, &level, &sub.Department); err != nil {
			return err
		}
		sub.EducationLevel = studyhub.EducationLevel(level)
		if s, ok := bySession[sessionID]; ok {
			s.Subjects = append(s.Subjects, sub)
		}
	}
	return rows.Err()
}

func (db *DB) Sessions(ctx context.Context) ([]*studyhub.Session, error) {
	out, err := querySessions(ctx, db.pool,
		`SELECT `+sessionColumns+` FROM study_sessions s ORDER BY s.start_time, s.id`)
	if err != nil {
		return nil, err
	}
	return out, attachSubjects(ctx, db.pool, out)
}

func (db *DB) Session(ctx context.Context, id int64) (*studyhub.Session, error) {
	return loadSession(ctx, db.pool, id, false)
}

func loadSession(ctx context.Context, q querier, id int64, lock bool) (*studyhub.Session, error) {
	sql := `SELECT ` + sessionColumns + ` FROM study_sessions s WHERE s.id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	s, err := scanSession(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, studyhub.ErrSessionNotFound
		}
		return nil, err
	}
	if err := attachSubjects(ctx, q, []*studyhub.Session{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) SessionsOf(ctx context.Context, userID string) ([]*studyhub.Session, error) {
	out, err := querySessions(ctx, db.pool,
		`SELECT `+sessionColumns+`
		 FROM study_sessions s JOIN session_members m ON m.session_id = s.id
		 WHERE m.user_id = $1
		 ORDER BY s.start_time, s.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return out, attachSubjects(ctx, db.pool, out)
}

func (db *DB) Members(ctx context.Context, sessionID int64) ([]studyhub.Membership, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, user_id, role, joined_at FROM session_members
		 WHERE session_id = $1 ORDER BY joined_at, user_id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []studyhub.Membership{}
	for rows.Next() {
		var (
			m    studyhub.Membership
			role string
		)
		if err := rows.Scan(&m.SessionID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = studyhub.MemberRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) Waitlist(ctx context.Context, sessionID int64) ([]studyhub.WaitlistEntry, error) {
	return queryWaitlist(ctx, db.pool, sessionID)
}

func queryWaitlist(ctx context.Context, q querier, sessionID int64) ([]studyhub.WaitlistEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT id, session_id, user_id, added_at FROM waitlist_entries
		 WHERE session_id = $1 ORDER BY added_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []studyhub.WaitlistEntry{}
	for rows.Next() {
		var e studyhub.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) Messages(ctx context.Context, sessionID int64) ([]studyhub.Message, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, user_id, text, created_at FROM messages
		 WHERE session_id = $1 ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []studyhub.Message{}
	for rows.Next() {
		var m studyhub.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) MarkReminder(ctx context.Context, sessionID int64, start time.Time) (bool, error) {
	ct, err := db.pool.Exec(ctx,
		`INSERT INTO reminder_marks (session_id, occurrence_start) VALUES ($1, $2)
		 ON CONFLICT (session_id, occurrence_start) DO NOTHING`,
		sessionID, start,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Create inserts s and runs fn in the same transaction.
func (db *DB) Create(ctx context.Context, s *studyhub.Session, fn func(tx studyhub.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO study_sessions (owner_id, title, description, start_time, end_time,
			is_virtual, virtual_link, location_text, capacity,
			is_recurring, recurrence_type, recurrence_interval, recurrence_end_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		s.OwnerID, s.Title, s.Description, s.StartTime, s.EndTime,
		s.IsVirtual, s.VirtualLink, s.LocationText, s.Capacity,
		s.IsRecurring, string(s.Recurrence), s.Interval, s.RecurrenceEnd, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update locks the session row for the rest of the transaction, so every
// membership change of one session runs one at a time.
func (db *DB) Update(ctx context.Context, sessionID int64, fn func(tx studyhub.Tx, s *studyhub.Session) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := loadSession(ctx, tx, sessionID, true)
	if err != nil {
		return err
	}
	if err := fn(&pgTx{tx: tx}, s); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
