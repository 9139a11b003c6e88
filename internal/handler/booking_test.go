package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/auth"
	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// newBookingHandler wires a BookingHandler against a mocked database.
func newBookingHandler(db *sql.DB) *BookingHandler {
	return NewBookingHandler(
		config.Config{SeatLockTTLMin: 5},
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewSeatLockRepo(db),
		repository.NewOrderRepo(db),
		repository.NewTicketRepo(db),
	)
}

// bookingContext builds an authenticated request context for
// POST /v1/events/:id/bookings.
func bookingContext(t *testing.T, body string, eventID string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/"+eventID+"/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	c.Set("user_id", userID)
	c.Set("role", auth.RoleUser)
	return c, rec
}

func eventRow() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "organizer_id", "title", "venue", "event_date", "banner_url", "created_at", "updated_at"}).
		AddRow(uint64(3), uint64(9), "Night Show", "Main Hall", now.Add(48*time.Hour), nil, now, now)
}

func seatRows(booked bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
		AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), booked, now, now).
		AddRow(uint64(102), uint64(3), "A", uint32(2), "Regular", uint32(150), false, now, now)
}

func TestCreateBookingSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(102)).
		WillReturnRows(seatRows(false))
	mock.ExpectQuery("FROM tickets t").
		WithArgs(uint64(101), uint64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "seat_id", "payment_status"}))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(uint64(42), uint64(3), uint32(250), "upi").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM orders").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(21, 2))
	mock.ExpectCommit()

	h := newBookingHandler(db)
	c, rec := bookingContext(t, `{"seat_ids":[101,102]}`, "3", 42)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_id":11`)
	assert.Contains(t, rec.Body.String(), `"total_amount":250`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingIdempotentReplay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(102)).
		WillReturnRows(seatRows(false))
	// the caller's earlier order still pends on both seats
	mock.ExpectQuery("FROM tickets t").
		WithArgs(uint64(101), uint64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "seat_id", "payment_status"}).
			AddRow(uint64(21), uint64(11), uint64(42), uint64(101), "pending").
			AddRow(uint64(22), uint64(11), uint64(42), uint64(102), "pending"))
	mock.ExpectRollback()

	h := newBookingHandler(db)
	c, rec := bookingContext(t, `{"seat_ids":[101,102]}`, "3", 42)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_id":11`)
	assert.Contains(t, rec.Body.String(), `"replayed":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSeatsClaimedByOther(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(102)).
		WillReturnRows(seatRows(false))
	// another buyer is mid-checkout on seat 101
	mock.ExpectQuery("FROM tickets t").
		WithArgs(uint64(101), uint64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "seat_id", "payment_status"}).
			AddRow(uint64(31), uint64(12), uint64(77), uint64(101), "pending"))
	mock.ExpectRollback()

	h := newBookingHandler(db)
	c, rec := bookingContext(t, `{"seat_ids":[101,102]}`, "3", 42)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), repository.ErrSeatsUnavailable.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingBookedSeatGuard(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(102)).
		WillReturnRows(seatRows(true)) // seat 101 already sold
	mock.ExpectQuery("FROM tickets t").
		WithArgs(uint64(101), uint64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "seat_id", "payment_status"}))
	mock.ExpectRollback()

	h := newBookingHandler(db)
	c, rec := bookingContext(t, `{"seat_ids":[101,102]}`, "3", 42)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingStaleSeatIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectBegin()
	// only one of the two requested seats exists for this event
	now := time.Now().UTC()
	mock.ExpectQuery("FROM seats WHERE event_id").
		WithArgs(uint64(3), uint64(101), uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
			AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), false, now, now))
	mock.ExpectRollback()

	h := newBookingHandler(db)
	c, rec := bookingContext(t, `{"seat_ids":[101,999]}`, "3", 42)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), repository.ErrSeatsNotFound.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// the conflict decisions themselves live in two small helpers so the
// sentinel errors are produced in exactly one place each
func TestClassifyClaims(t *testing.T) {
	// all claims pending under the caller: replayable
	id, err := classifyClaims([]repository.TicketClaim{
		{TicketID: 21, OrderID: 11, UserID: 42, SeatID: 101, PaymentStatus: "pending"},
		{TicketID: 22, OrderID: 11, UserID: 42, SeatID: 102, PaymentStatus: "pending"},
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)

	// a foreign pending claim blocks the attempt
	_, err = classifyClaims([]repository.TicketClaim{
		{TicketID: 31, OrderID: 12, UserID: 77, SeatID: 101, PaymentStatus: "pending"},
	}, 42)
	assert.ErrorIs(t, err, repository.ErrSeatsUnavailable)

	// so does the caller's own completed claim (the seat is sold)
	_, err = classifyClaims([]repository.TicketClaim{
		{TicketID: 41, OrderID: 13, UserID: 42, SeatID: 101, PaymentStatus: "completed"},
	}, 42)
	assert.ErrorIs(t, err, repository.ErrSeatsUnavailable)

	// no claims at all: nothing to replay, nothing blocking
	id, err = classifyClaims(nil, 42)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestPriceAvailableSeats(t *testing.T) {
	total, err := priceAvailableSeats([]model.Seat{
		{ID: 101, Price: 100},
		{ID: 102, Price: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(250), total)

	_, err = priceAvailableSeats([]model.Seat{
		{ID: 101, Price: 100, IsBooked: true},
	})
	assert.ErrorIs(t, err, repository.ErrSeatsUnavailable)
}

func TestLockSeatConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM seats WHERE id").
		WithArgs(uint64(101), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
			AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), false, now, now))
	mock.ExpectExec("INSERT INTO seat_locks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id, expires_at FROM seat_locks").
		WithArgs(uint64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow(uint64(77), now.Add(2*time.Minute)))

	h := newBookingHandler(db)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/3/seats/101/lock", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id", "seatId")
	c.SetParamValues("3", "101")
	c.Set("user_id", uint64(42))
	c.Set("role", auth.RoleUser)

	require.NoError(t, h.LockSeat(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
