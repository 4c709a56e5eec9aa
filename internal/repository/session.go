package repository

import (
	"context"
	"time"

	"feedback-board/internal/domain"
)

// SessionRepository stores server-side session rows. Rows reference their
// user and disappear with it.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
