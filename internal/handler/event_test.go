package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/auth"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/storage"
)

func newEventHandler(db *sql.DB) *EventHandler {
	return NewEventHandler(
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewSeatLockRepo(db),
		repository.NewOrderRepo(db),
		repository.NewTicketRepo(db),
		repository.NewWaitlistRepo(db),
		repository.NewReviewRepo(db),
		repository.NewWishlistRepo(db),
		storage.NoopStore{},
	)
}

func TestListSeatsDerivesAvailability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectQuery("FROM seats").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "row_label", "seat_number", "seat_type", "price", "is_booked", "created_at", "updated_at"}).
			AddRow(uint64(101), uint64(3), "A", uint32(1), "Regular", uint32(100), true, now, now).
			AddRow(uint64(102), uint64(3), "A", uint32(2), "Regular", uint32(100), false, now, now).
			AddRow(uint64(103), uint64(3), "A", uint32(3), "VIP", uint32(300), false, now, now))
	// only seat 102 carries an unexpired hold
	mock.ExpectQuery("FROM seat_locks").
		WithArgs(uint64(101), uint64(102), uint64(103)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "user_id", "expires_at", "created_at"}).
			AddRow(uint64(102), uint64(42), now.Add(3*time.Minute), now))

	h := newEventHandler(db)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/3/seats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.ListSeats(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"id":101,"row_label":"A","seat_number":1,"seat_type":"Regular","price":100,"status":"booked"`)
	assert.Contains(t, body, `"id":102,"row_label":"A","seat_number":2,"seat_type":"Regular","price":100,"status":"locked"`)
	assert.Contains(t, body, `"id":103,"row_label":"A","seat_number":3,"seat_type":"VIP","price":300,"status":"available"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinWaitlistTwiceConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectExec("INSERT INTO waitlists").
		WithArgs(uint64(3), uint64(42)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-42' for key 'waitlists.uq_waitlists_event_user'"})

	h := newEventHandler(db)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/3/waitlist", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	c.Set("user_id", uint64(42))
	c.Set("role", auth.RoleUser)

	require.NoError(t, h.JoinWaitlist(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT organizer_id FROM events").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"organizer_id"}).AddRow(uint64(9)))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT banner_url FROM events").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"banner_url"}).AddRow("https://cdn.example/banner.png"))
	mock.ExpectQuery("SELECT payment_screenshot_url FROM orders").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"payment_screenshot_url"}).AddRow("https://cdn.example/proof.png"))
	mock.ExpectExec("DELETE FROM tickets WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM orders WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE sl FROM seat_locks").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM seats WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec("DELETE FROM waitlists WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM reviews WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM wishlists WHERE event_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM events WHERE id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := newEventHandler(db)
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/events/3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	c.Set("user_id", uint64(9))
	c.Set("role", auth.RoleOrganizer)

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
