package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestTokenRepoStoreAndIsLive(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO auth_tokens").
		WithArgs(uint64(1), "abc123").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM auth_tokens").
		WithArgs(uint64(1), "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewTokenRepo(db)
	if err := repo.Store(context.Background(), 1, "abc123"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	live, err := repo.IsLive(context.Background(), 1, "abc123")
	if err != nil {
		t.Fatalf("IsLive: %v", err)
	}
	if !live {
		t.Fatal("stored token reported not live")
	}
}

func TestTokenRepoIsLiveRevoked(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM auth_tokens").
		WithArgs(uint64(1), "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	repo := NewTokenRepo(db)
	live, err := repo.IsLive(context.Background(), 1, "abc123")
	if err != nil {
		t.Fatalf("IsLive: %v", err)
	}
	if live {
		t.Fatal("revoked token reported live")
	}
}

func TestTokenRepoRevoke(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE auth_tokens SET revoked_at=NOW\\(\\) WHERE user_id=\\? AND token_hash=\\?").
		WithArgs(uint64(1), "abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTokenRepo(db)
	if err := repo.Revoke(context.Background(), 1, "abc123"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
}

func TestTokenRepoRevokeAll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE auth_tokens SET revoked_at=NOW\\(\\) WHERE user_id=\\? AND revoked_at IS NULL").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewTokenRepo(db)
	if err := repo.RevokeAll(context.Background(), 1); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
}
