package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"feedback-board/internal/domain"
	"feedback-board/internal/repository"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return mock, db
}

func testUser() *domain.User {
	return &domain.User{
		Username:     "alice",
		PasswordHash: "hash",
		Email:        "a@x.com",
		FirstName:    "Alice",
		LastName:     "Lee",
	}
}

const insertUserQuery = `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*email,\s*first_name,\s*last_name,\s*created_at,\s*updated_at\)`

func TestUserCreate_Success(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQuery).
		WithArgs("alice", "hash", "a@x.com", "Alice", "Lee", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := testUser()
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
}

func TestUserCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraintUsersPkey, repository.ErrDuplicateUsername},
		{constraintUsersEmail, repository.ErrDuplicateEmail},
	}

	for _, tc := range tests {
		t.Run(tc.constraint, func(t *testing.T) {
			mock, db := newMock(t)
			repo := NewUserRepository(db)

			mock.ExpectExec(insertUserQuery).
				WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: tc.constraint})

			err := repo.Create(context.Background(), testUser())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserCreate_DBError(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQuery).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), testUser())
	if err == nil || errors.Is(err, repository.ErrDuplicateUsername) || errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected plain db error, got %v", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)
	now := time.Now()

	q := `(?s)^\s*SELECT\s+username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1`
	rows := sqlmock.NewRows([]string{"username", "password_hash", "email", "first_name", "last_name", "created_at", "updated_at"}).
		AddRow("alice", "hash", "a@x.com", "Alice", "Lee", now, now)
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.FullName() != "Alice Lee" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)

	q := `(?s)^\s*DELETE\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`
	mock.ExpectExec(q).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "alice"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFeedbackCreate(t *testing.T) {
	mock, db := newMock(t)
	repo := NewFeedbackRepository(db)

	q := `(?s)^\s*INSERT\s+INTO\s+feedback.*RETURNING\s+id`
	mock.ExpectQuery(q).
		WithArgs("Hi", "body", "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(q).
		WithArgs("Hi", "body", "ghost", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	fb := &domain.Feedback{Title: "Hi", Content: "body", Username: "alice"}
	id, err := repo.Create(context.Background(), fb)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id != 7 || fb.ID != 7 {
		t.Fatalf("unexpected id %d / %d", id, fb.ID)
	}

	_, err = repo.Create(context.Background(), &domain.Feedback{Title: "Hi", Content: "body", Username: "ghost"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFeedbackUpdateAndDelete_NotFound(t *testing.T) {
	mock, db := newMock(t)
	repo := NewFeedbackRepository(db)

	mock.ExpectExec(`(?s)^\s*UPDATE\s+feedback`).
		WithArgs("t", "c", sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)^\s*DELETE\s+FROM\s+feedback`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), &domain.Feedback{ID: 9, Title: "t", Content: "c"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := repo.Delete(context.Background(), 9); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestFeedbackListByOwner(t *testing.T) {
	mock, db := newMock(t)
	repo := NewFeedbackRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "title", "content", "username", "created_at", "updated_at"}).
		AddRow(1, "a", "x", "alice", now, now).
		AddRow(2, "b", "y", "alice", now, now)
	mock.ExpectQuery(`(?s)^\s*SELECT\s+id,.*FROM\s+feedback\s+WHERE\s+username\s*=\s*\$1\s+ORDER\s+BY\s+id\s+ASC`).
		WithArgs("alice").
		WillReturnRows(rows)

	items, err := repo.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(items) != 2 || items[1].Title != "b" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSessionGet_MalformedIDSkipsQuery(t *testing.T) {
	_, db := newMock(t)
	repo := NewSessionRepository(db)

	if _, err := repo.Get(context.Background(), "not-a-uuid"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	mock, db := newMock(t)
	repo := NewSessionRepository(db)

	mock.ExpectExec(`(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+expires_at\s*<=\s*\$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}
