package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/auth"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

func newReviewHandler(db *sql.DB) *ReviewHandler {
	return NewReviewHandler(
		repository.NewEventRepo(db),
		repository.NewOrderRepo(db),
		repository.NewReviewRepo(db),
	)
}

// reviewContext builds an authenticated request context for
// POST /v1/events/:id/reviews.
func reviewContext(t *testing.T, body string, eventID string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/"+eventID+"/reviews", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	c.Set("user_id", userID)
	c.Set("role", auth.RoleUser)
	return c, rec
}

func TestSubmitReviewSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(3), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"attended"}).AddRow(true))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(uint64(3), uint64(42), uint8(4), "great show").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT created_at FROM reviews").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	h := newReviewHandler(db)
	c, rec := reviewContext(t, `{"rating":4,"comment":"great show"}`, "3", 42)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
	assert.Contains(t, rec.Body.String(), `"rating":4`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewWithoutCompletedOrderForbidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	// the caller never got an order approved for this event
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(3), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"attended"}).AddRow(false))

	h := newReviewHandler(db)
	c, rec := reviewContext(t, `{"rating":5}`, "3", 42)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "attended")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewTwiceConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(3), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"attended"}).AddRow(true))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(uint64(3), uint64(42), uint8(5), "").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-42' for key 'reviews.uq_reviews_event_user'"})

	h := newReviewHandler(db)
	c, rec := reviewContext(t, `{"rating":5}`, "3", 42)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReviewRejectsOutOfRangeRating(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := newReviewHandler(db)
	for _, body := range []string{`{"rating":0}`, `{"rating":6}`} {
		c, rec := reviewContext(t, body, "3", 42)
		require.NoError(t, h.Submit(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestListReviewsNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM events WHERE id").WithArgs(uint64(3)).WillReturnRows(eventRow())
	mock.ExpectQuery("FROM reviews r").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "rating", "comment", "created_at", "full_name"}).
			AddRow(uint64(8), uint64(3), uint64(50), uint8(5), "front row!", now, "Priya S").
			AddRow(uint64(7), uint64(3), uint64(42), uint8(4), "great show", now.Add(-time.Hour), "Arun K"))

	h := newReviewHandler(db)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/3/reviews", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"reviewer_name":"Priya S"`)
	assert.Contains(t, body, `"reviewer_name":"Arun K"`)
	assert.Less(t, strings.Index(body, "Priya S"), strings.Index(body, "Arun K"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
