package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"feedback-board/internal/repository"
)

const memoryPath = ":memory:"

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// one connection: sqlite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewStore creates the schema and returns repositories backed by db.
func NewStore(ctx context.Context, db *sql.DB) (*repository.Store, error) {
	users := NewUserRepository(db)
	feedback := NewFeedbackRepository(db)
	sessions := NewSessionRepository(db)

	// users first: the other tables reference it
	if err := users.Init(ctx); err != nil {
		return nil, err
	}
	if err := feedback.Init(ctx); err != nil {
		return nil, err
	}
	if err := sessions.Init(ctx); err != nil {
		return nil, err
	}

	return &repository.Store{
		Users:    users,
		Feedback: feedback,
		Sessions: sessions,
	}, nil
}

// constraintKind reports which constraint err violated, if any:
// "unique", "primarykey", "foreignkey", or "" for anything else.
func constraintKind(err error) (kind string, detail string) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", ""
	}

	code := sqliteErr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", ""
	}

	detail = sqliteErr.Error()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return "unique", detail
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "primarykey", detail
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "foreignkey", detail
	}

	// extended result codes disabled: fall back to the message
	msg := strings.ToUpper(detail)
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return "unique", detail
	case strings.Contains(msg, "FOREIGN KEY"):
		return "foreignkey", detail
	}
	return "", detail
}
