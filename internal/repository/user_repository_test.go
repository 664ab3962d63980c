package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return db, mock, cleanup
}

func userRows(id uint64, name, email, role, hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "email", "role", "password_hash", "created_at", "updated_at"}).
		AddRow(id, name, email, role, hash, now, now)
}

func TestUserRepoCreate(t *testing.T) {
	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantID     uint64
		wantErr    error
	}{
		{
			name: "success",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec("INSERT INTO users").
					WithArgs("test", "test@test.com", "user", "hashed").
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			wantID: 7,
		},
		{
			name: "duplicate email",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec("INSERT INTO users").
					WithArgs("test", "test@test.com", "user", "hashed").
					WillReturnError(errors.New("Error 1062: Duplicate entry"))
			},
			wantErr: ErrEmailExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			tt.mockExpect(mock)

			repo := NewUserRepo(db)
			id, err := repo.Create(context.Background(), "test", "test@test.com", "hashed")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Fatalf("id = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestUserRepoGetByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("test@test.com").
		WillReturnRows(userRows(3, "test", "test@test.com", "user", "h"))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "test@test.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != 3 || u.Email != "test@test.com" || u.Role != "user" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserRepoGetByIDMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUserRepoUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	name := "renamed"
	hash := "newhash"
	mock.ExpectExec("UPDATE users SET name=\\?, password_hash=\\? WHERE id=\\?").
		WithArgs("renamed", "newhash", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	err := repo.Update(context.Background(), 3, UserPatch{Name: &name, PasswordHash: &hash})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestUserRepoUpdateEmptyPatch(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()

	// No SQL is expected for an empty patch.
	repo := NewUserRepo(db)
	if err := repo.Update(context.Background(), 3, UserPatch{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
}
