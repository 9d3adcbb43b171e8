package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

const userColumns = `id, username, email, role, education_level, created_at`

func scanUser(row pgx.Row) (*studyhub.User, error) {
	var (
		u           studyhub.User
		role, level string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &level, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = studyhub.UserRole(role)
	u.EducationLevel = studyhub.EducationLevel(level)
	return &u, nil
}

func (db *DB) User(ctx context.Context, id string) (*studyhub.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UpsertUser refreshes username and email of a known user and keeps the
// stored role and education level.
func (db *DB) UpsertUser(ctx context.Context, u *studyhub.User) (*studyhub.User, error) {
	return scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, role, education_level, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email
		 RETURNING `+userColumns,
		u.ID, u.Username, u.Email, string(u.Role), string(u.EducationLevel), u.CreatedAt,
	))
}

func (db *DB) Subjects(ctx context.Context, level studyhub.EducationLevel) ([]studyhub.Subject, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, slug, education_level, department FROM subjects
		 WHERE $1 = '' OR education_level = $1
		 ORDER BY education_level, name`,
		string(level),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []studyhub.Subject{}
	for rows.Next() {
		var (
			s  studyhub.Subject
			lv string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &lv, &s.Department); err != nil {
			return nil, err
		}
		s.EducationLevel = studyhub.EducationLevel(lv)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SeedSubjects inserts the catalog, skipping subjects that already exist.
// It returns how many were new.
func (db *DB) SeedSubjects(ctx context.Context, subjects []studyhub.Subject) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := 0
	for _, s := range subjects {
		ct, err := tx.Exec(ctx,
			`INSERT INTO subjects (name, slug, education_level, department) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name, education_level) DO NOTHING`,
			s.Name, s.Slug, string(s.EducationLevel), s.Department,
		)
		if err != nil {
			return 0, err
		}
		created += int(ct.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}
