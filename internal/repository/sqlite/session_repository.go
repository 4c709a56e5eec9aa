package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

// expires_at is unix seconds so expiry sweeps compare integers.
const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT NOT NULL PRIMARY KEY,
	username TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_username ON sessions(username);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, username, expires_at, created_at)
VALUES (?, ?, ?, ?)`,
		session.ID,
		session.Username,
		session.ExpiresAt.Unix(),
		session.CreatedAt.UTC(),
	)
	if err != nil {
		if kind, _ := constraintKind(err); kind == "foreignkey" {
			return fmt.Errorf("session owner %q: %w", session.Username, repository.ErrNotFound)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session   domain.Session
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, expires_at, created_at
FROM sessions
WHERE id = ?`, id).Scan(&session.ID, &session.Username, &expiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireAffected(res, "session", id)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}
	return aff, nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
