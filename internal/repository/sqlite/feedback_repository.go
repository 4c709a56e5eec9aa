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

const createFeedbackTable = `
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	username TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_feedback_username ON feedback(username);
`

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFeedbackTable); err != nil {
		return fmt.Errorf("create feedback table: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) (int64, error) {
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO feedback (title, content, username, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		feedback.Title,
		feedback.Content,
		feedback.Username,
		feedback.CreatedAt,
		feedback.UpdatedAt,
	)
	if err != nil {
		if kind, _ := constraintKind(err); kind == "foreignkey" {
			return 0, fmt.Errorf("feedback owner %q: %w", feedback.Username, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert feedback: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("feedback last insert id: %w", err)
	}
	feedback.ID = id
	return id, nil
}

func (r *FeedbackRepository) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, content, username, created_at, updated_at
FROM feedback
WHERE id = ?`,
		id,
	)
	return scanFeedback(row)
}

// Update rewrites title and content only; id and owner are immutable.
func (r *FeedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	feedback.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE feedback
SET title=?, content=?, updated_at=?
WHERE id=?`,
		feedback.Title,
		feedback.Content,
		feedback.UpdatedAt,
		feedback.ID,
	)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return requireAffected(res, "feedback", feedback.ID)
}

func (r *FeedbackRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return requireAffected(res, "feedback", id)
}

func (r *FeedbackRepository) ListByOwner(ctx context.Context, username string) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, content, username, created_at, updated_at
FROM feedback
WHERE username=?
ORDER BY id ASC`, username)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var items []domain.Feedback
	for rows.Next() {
		item, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

func scanFeedback(scanner interface {
	Scan(dest ...any) error
}) (*domain.Feedback, error) {
	var feedback domain.Feedback
	if err := scanner.Scan(
		&feedback.ID,
		&feedback.Title,
		&feedback.Content,
		&feedback.Username,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feedback: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	return &feedback, nil
}

func requireAffected(res sql.Result, what string, id any) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s %v: %w", what, id, repository.ErrNotFound)
	}
	return nil
}

var _ repository.FeedbackRepository = (*FeedbackRepository)(nil)
