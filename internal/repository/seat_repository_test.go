package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetByIDsForEventTxReportsMissingSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	// two seats requested, only one belongs to the event
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
			AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), false, now, now))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	repo := NewSeatRepo(db)
	_, err = repo.GetByIDsForEventTx(context.Background(), tx, 3, []uint64{101, 999})
	if !errors.Is(err, ErrSeatsNotFound) {
		t.Fatalf("expected ErrSeatsNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDsForEventTxReturnsAllRequestedSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
			AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), false, now, now).
			AddRow(uint64(102), uint64(3), "A", uint32(2), "Regular", uint32(150), false, now, now))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	repo := NewSeatRepo(db)
	seats, err := repo.GetByIDsForEventTx(context.Background(), tx, 3, []uint64{101, 102})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seats) != 2 {
		t.Fatalf("expected 2 seats, got %d", len(seats))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
