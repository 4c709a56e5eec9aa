package repository

import (
	"context"

	"feedback-board/internal/domain"
)

// FeedbackRepository exposes persistence operations for Feedback records.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Feedback, error)
	Update(ctx context.Context, feedback *domain.Feedback) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, username string) ([]domain.Feedback, error)
}
