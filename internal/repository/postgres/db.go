// Package postgres implements the repositories on PostgreSQL through the pgx
// database/sql driver. The schema is owned by the goose migrations in
// migrations/.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"feedback-board/internal/repository"
	"feedback-board/internal/repository/postgres/migrations"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintUsersPkey  = "users_pkey"
	constraintUsersEmail = "users_email_key"
)

// DBTX is the subset of *sql.DB the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database described by dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// NewStore migrates the schema and returns repositories backed by db.
func NewStore(ctx context.Context, db *sql.DB) (*repository.Store, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return &repository.Store{
		Users:    NewUserRepository(db),
		Feedback: NewFeedbackRepository(db),
		Sessions: NewSessionRepository(db),
	}, nil
}

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
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
