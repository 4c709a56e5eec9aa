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

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, email, first_name, last_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeUniqueViolation {
			switch pgErr.ConstraintName {
			case constraintUsersEmail:
				return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrDuplicateEmail)
			case constraintUsersPkey:
				return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrDuplicateUsername)
			}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, `
SELECT username, password_hash, email, first_name, last_name, created_at, updated_at
FROM users
WHERE username = $1`, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "user", username)
}

var _ repository.UserRepository = (*UserRepository)(nil)
