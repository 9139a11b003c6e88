package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSeatLockAcquireSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	exp := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Second)
	mock.ExpectExec("INSERT INTO seat_locks").
		WithArgs(uint64(7), uint64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT user_id, expires_at FROM seat_locks").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow(uint64(42), exp))

	repo := NewSeatLockRepo(db)
	got, err := repo.Acquire(context.Background(), 7, 42, 5*time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("expires_at = %v, want %v", got, exp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeatLockAcquireHeldByOther(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// the upsert leaves the other user's unexpired row untouched
	mock.ExpectExec("INSERT INTO seat_locks").
		WithArgs(uint64(7), uint64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id, expires_at FROM seat_locks").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow(uint64(99), time.Now().UTC().Add(3*time.Minute)))

	repo := NewSeatLockRepo(db)
	if _, err := repo.Acquire(context.Background(), 7, 42, 5*time.Minute); !errors.Is(err, ErrSeatUnavailable) {
		t.Fatalf("err = %v, want ErrSeatUnavailable", err)
	}
}

func TestSeatLockAcquireRowExpiredBetweenWriteAndRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO seat_locks").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT user_id, expires_at FROM seat_locks").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}))

	repo := NewSeatLockRepo(db)
	if _, err := repo.Acquire(context.Background(), 7, 42, time.Minute); !errors.Is(err, ErrSeatUnavailable) {
		t.Fatalf("err = %v, want ErrSeatUnavailable", err)
	}
}

func TestSeatLockReleaseIsNoOpForForeignLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM seat_locks").
		WithArgs(uint64(7), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSeatLockRepo(db)
	if err := repo.Release(context.Background(), 7, 42); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestSeatLockActiveBySeatIDsFiltersExpiredInSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT seat_id, user_id, expires_at, created_at FROM seat_locks").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "user_id", "expires_at", "created_at"}).
			AddRow(uint64(2), uint64(42), now.Add(time.Minute), now))

	repo := NewSeatLockRepo(db)
	locks, err := repo.ActiveBySeatIDs(context.Background(), []uint64{1, 2})
	if err != nil {
		t.Fatalf("ActiveBySeatIDs: %v", err)
	}
	if len(locks) != 1 {
		t.Fatalf("len(locks) = %d, want 1", len(locks))
	}
	if l, ok := locks[2]; !ok || l.UserID != 42 {
		t.Fatalf("locks[2] = %+v, want holder 42", l)
	}
}
