package handler

import (
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
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

func checkInContext(t *testing.T, body string, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/check-in", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(5))
	c.Set("role", role)
	return c, rec
}

func ticketDetailRows(status string, checkedInAt interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "order_id", "user_id", "event_id", "seat_id",
		"qr_code_data", "ticket_code", "check_in_status", "checked_in_at", "created_at",
		"title", "row_label", "seat_number", "seat_type", "full_name",
	}).AddRow(
		uint64(21), uint64(10), uint64(42), uint64(3), uint64(101),
		"TICKET-10-101-1712345678901234567", "AB2CD3", status, checkedInAt, now,
		"Night Show", "A", uint32(1), "Regular", "Buyer Name",
	)
}

func TestCheckInValidTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM tickets t").
		WithArgs("AB2CD3", "AB2CD3").
		WillReturnRows(ticketDetailRows("pending", nil))
	mock.ExpectExec("UPDATE tickets SET check_in_status").
		WithArgs(uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewTicketHandler(repository.NewTicketRepo(db))
	c, rec := checkInContext(t, `{"code":"AB2CD3"}`, auth.RoleStaff)

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"valid"`)
	assert.Contains(t, rec.Body.String(), `"check_in_status":"checked_in"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInAlreadyUsedTicketDoesNotMutate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// only the lookup runs; no update statement is expected
	usedAt := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery("FROM tickets t").
		WithArgs("AB2CD3", "AB2CD3").
		WillReturnRows(ticketDetailRows("checked_in", usedAt))

	h := NewTicketHandler(repository.NewTicketRepo(db))
	c, rec := checkInContext(t, `{"code":"AB2CD3"}`, auth.RoleStaff)

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"already_used"`)
	assert.Contains(t, rec.Body.String(), `"checked_in_at"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInUnknownCodeInvalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM tickets t").
		WithArgs("NOPE99", "NOPE99").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewTicketHandler(repository.NewTicketRepo(db))
	c, rec := checkInContext(t, `{"code":"NOPE99"}`, auth.RoleOrganizer)

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"invalid"`)
}

func TestCheckInBuyerRoleForbidden(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewTicketHandler(repository.NewTicketRepo(db))
	c, rec := checkInContext(t, `{"code":"AB2CD3"}`, auth.RoleUser)

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckInRaceFallsBackToAlreadyUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// a concurrent scanner consumes the ticket between read and update
	mock.ExpectQuery("FROM tickets t").
		WithArgs("AB2CD3", "AB2CD3").
		WillReturnRows(ticketDetailRows("pending", nil))
	mock.ExpectExec("UPDATE tickets SET check_in_status").
		WithArgs(uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := NewTicketHandler(repository.NewTicketRepo(db))
	c, rec := checkInContext(t, `{"code":"AB2CD3"}`, auth.RoleStaff)

	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"already_used"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
