package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"time"     // rendering timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
)

// WishlistHandler lets a user bookmark events and browse their saved
// list from the profile page.
type WishlistHandler struct {
	EventRepo *repository.EventRepo
	WishRepo  *repository.WishlistRepo
}

// NewWishlistHandler constructs a WishlistHandler.  Both repositories
// must be non-nil.
func NewWishlistHandler(eventRepo *repository.EventRepo, wishRepo *repository.WishlistRepo) *WishlistHandler {
	if eventRepo == nil || wishRepo == nil {
		panic("nil repository passed to NewWishlistHandler")
	}
	return &WishlistHandler{EventRepo: eventRepo, WishRepo: wishRepo}
}

// Add handles POST /v1/events/:id/wishlist.  Saving the same event
// twice reports 409.
func (h *WishlistHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
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
	if err := h.WishRepo.Add(ctx, eventID, userID); err != nil {
		if errors.Is(err, repository.ErrAlreadyWishlisted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "event already in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event_id": eventID, "wishlisted": true})
}

// Remove handles DELETE /v1/events/:id/wishlist.  Removing an event
// that was never saved is a no-op.
func (h *WishlistHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.WishRepo.Remove(c.Request().Context(), eventID, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// wishlistItemView is the JSON shape wishlist entries are rendered as.
type wishlistItemView struct {
	EventID   uint64  `json:"event_id"`
	Title     string  `json:"title"`
	Venue     string  `json:"venue"`
	EventDate string  `json:"event_date"`
	BannerURL *string `json:"banner_url,omitempty"`
	AddedAt   string  `json:"added_at"`
}

// ListMine handles GET /v1/wishlist.  Returns the caller's saved
// events with display details, most recently saved first.
func (h *WishlistHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.WishRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	views := make([]wishlistItemView, 0, len(items))
	for _, it := range items {
		views = append(views, wishlistItemView{
			EventID:   it.EventID,
			Title:     it.Title,
			Venue:     it.Venue,
			EventDate: it.EventDate.UTC().Format(time.RFC3339),
			BannerURL: it.BannerURL,
			AddedAt:   it.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"wishlist": views})
}
