package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*user_name,\s*password_hash,\s*email_confirmed,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`

var userCols = []string{"id", "email", "user_name", "password_hash", "email_confirmed", "created_at"}

func sampleUser() *models.User {
	return &models.User{
		ID:           "u1",
		Email:        "alice@example.com",
		UserName:     "alice@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := sampleUser()
	mock.ExpectExec(insertQ).
		WithArgs(u.ID, u.Email, u.UserName, u.PasswordHash, false, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), sampleUser())
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := sampleUser()
	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s*$`
	rows := sqlmock.NewRows(userCols).
		AddRow(want.ID, want.Email, want.UserName, want.PasswordHash, want.EmailConfirmed, want.CreatedAt)
	mock.ExpectQuery(q).WithArgs("Alice@Example.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestSetEmailConfirmed(t *testing.T) {
	q := `^UPDATE\s+users\s+SET\s+email_confirmed\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.SetEmailConfirmed(context.Background(), "u1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("u2").WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.SetEmailConfirmed(context.Background(), "u2"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("expected ErrorNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+user_roles\s*\(user_id,\s*role_id\)\s*SELECT\s+\$1,\s*id\s+FROM\s+roles\s+WHERE\s+name\s*=\s*\$2\s+ON\s+CONFLICT\s+DO\s+NOTHING\s*$`
	mock.ExpectExec(q).WithArgs("u1", "User").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AddRole(context.Background(), "u1", "User"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetRoles(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name"}).AddRow("Admin").AddRow("User")
	mock.ExpectQuery(`(?s)^SELECT\s+r\.name\s+FROM\s+roles\s+r\s+JOIN\s+user_roles`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.GetRoles(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Admin", "User"}, got); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRoles_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name"}).AddRow("User").RowError(0, errors.New("bad row"))
	mock.ExpectQuery(`(?s)SELECT\s+r\.name`).WithArgs("u1").WillReturnRows(rows)

	if _, err := repo.GetRoles(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}
