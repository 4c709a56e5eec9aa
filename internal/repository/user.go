package repository

import (
	"context"

	"feedback-board/internal/domain"
)

// UserRepository defines persistence operations for User entities.
//
// Create must rely on the store's uniqueness constraints and report a
// violation as ErrDuplicateUsername or ErrDuplicateEmail. Delete must remove
// the user's feedback and sessions in the same commit.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, username string) error
}
