package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"strings"  // comment trimming
	"time"     // rendering timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-ticket-booking/internal/model"      // domain records
	"github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
)

// ReviewHandler serves event reviews.  Submitting is gated on
// attendance: the caller must hold a completed order for the event.
// Listing is public.
type ReviewHandler struct {
	EventRepo  *repository.EventRepo
	OrderRepo  *repository.OrderRepo
	ReviewRepo *repository.ReviewRepo
}

// NewReviewHandler constructs a ReviewHandler.  All repositories must
// be non-nil.
func NewReviewHandler(eventRepo *repository.EventRepo, orderRepo *repository.OrderRepo, reviewRepo *repository.ReviewRepo) *ReviewHandler {
	if eventRepo == nil || orderRepo == nil || reviewRepo == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{EventRepo: eventRepo, OrderRepo: orderRepo, ReviewRepo: reviewRepo}
}

// Submit handles POST /v1/events/:id/reviews.  Only buyers with an
// approved order for the event may review it, and only once; a second
// submission reports 409.
func (h *ReviewHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Rating  uint8  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Rating < 1 || body.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	ctx := c.Request().Context()

	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	attended, err := h.OrderRepo.HasCompletedOrder(ctx, eventID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !attended {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only review events you have attended"})
	}

	review := model.Review{
		EventID: eventID,
		UserID:  userID,
		Rating:  body.Rating,
		Comment: strings.TrimSpace(body.Comment),
	}
	if err := h.ReviewRepo.Create(ctx, &review); err != nil {
		if errors.Is(err, repository.ErrAlreadyReviewed) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "you have already reviewed this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit review failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       review.ID,
		"event_id": review.EventID,
		"rating":   review.Rating,
	})
}

// reviewView is the JSON shape reviews are rendered as.
type reviewView struct {
	ID           uint64 `json:"id"`
	Rating       uint8  `json:"rating"`
	Comment      string `json:"comment,omitempty"`
	ReviewerName string `json:"reviewer_name"`
	CreatedAt    string `json:"created_at"`
}

// List handles GET /v1/events/:id/reviews.  Public; newest first.
func (h *ReviewHandler) List(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()

	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	details, err := h.ReviewRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	views := make([]reviewView, 0, len(details))
	for _, d := range details {
		views = append(views, reviewView{
			ID:           d.Review.ID,
			Rating:       d.Review.Rating,
			Comment:      d.Review.Comment,
			ReviewerName: d.ReviewerName,
			CreatedAt:    d.Review.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "reviews": views})
}
