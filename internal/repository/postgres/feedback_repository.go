package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) (int64, error) {
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
INSERT INTO feedback (title, content, username, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		feedback.Title,
		feedback.Content,
		feedback.Username,
		feedback.CreatedAt,
		feedback.UpdatedAt,
	).Scan(&feedback.ID)
	if err != nil {
		if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeForeignKeyViolation {
			return 0, fmt.Errorf("feedback owner %q: %w", feedback.Username, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return feedback.ID, nil
}

func (r *FeedbackRepository) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	var feedback domain.Feedback
	err := r.db.QueryRowContext(ctx, `
SELECT id, title, content, username, created_at, updated_at
FROM feedback
WHERE id = $1`, id).Scan(
		&feedback.ID,
		&feedback.Title,
		&feedback.Content,
		&feedback.Username,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feedback: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	return &feedback, nil
}

func (r *FeedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	feedback.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE feedback
SET title = $1, content = $2, updated_at = $3
WHERE id = $4`,
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return requireAffected(res, "feedback", id)
}

func (r *FeedbackRepository) ListByOwner(ctx context.Context, username string) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, content, username, created_at, updated_at
FROM feedback
WHERE username = $1
ORDER BY id ASC`, username)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var items []domain.Feedback
	for rows.Next() {
		var item domain.Feedback
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.Username, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var _ repository.FeedbackRepository = (*FeedbackRepository)(nil)
