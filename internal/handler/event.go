package handler

import (
    "context"  // detached context for post-commit artifact cleanup
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strconv"  // seat layout dedupe keys
    "strings"  // request field trimming
    "time"     // rendering timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-ticket-booking/internal/auth"       // capability checks
    "github.com/iliyamo/event-ticket-booking/internal/model"      // domain records
    "github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
    "github.com/iliyamo/event-ticket-booking/internal/storage"    // banner and proof cleanup
)

// seat types accepted when a layout is published.
var validSeatTypes = map[string]bool{"VIP": true, "Premium": true, "Regular": true}

// EventHandler covers the organizer-facing event lifecycle (create,
// publish layout, delete) and the public browse endpoints (event and
// seat listings).  Seat availability is derived, never stored: a seat
// is booked when is_booked is set, locked while an unexpired hold
// exists, and available otherwise.
type EventHandler struct {
	EventRepo  *repository.EventRepo
	SeatRepo   *repository.SeatRepo
	LockRepo   *repository.SeatLockRepo
	OrderRepo  *repository.OrderRepo
	TickRepo   *repository.TicketRepo
	WaitRepo   *repository.WaitlistRepo
	ReviewRepo *repository.ReviewRepo
	WishRepo   *repository.WishlistRepo
	Artifacts  storage.ArtifactStore
}

// NewEventHandler constructs an EventHandler.  The artifact store may
// be nil; all other dependencies must be non-nil.
func NewEventHandler(eventRepo *repository.EventRepo, seatRepo *repository.SeatRepo, lockRepo *repository.SeatLockRepo, orderRepo *repository.OrderRepo, tickRepo *repository.TicketRepo, waitRepo *repository.WaitlistRepo, reviewRepo *repository.ReviewRepo, wishRepo *repository.WishlistRepo, artifacts storage.ArtifactStore) *EventHandler {
	if eventRepo == nil || seatRepo == nil || lockRepo == nil || orderRepo == nil || tickRepo == nil || waitRepo == nil || reviewRepo == nil || wishRepo == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{
		EventRepo:  eventRepo,
		SeatRepo:   seatRepo,
		LockRepo:   lockRepo,
		OrderRepo:  orderRepo,
		TickRepo:   tickRepo,
		WaitRepo:   waitRepo,
		ReviewRepo: reviewRepo,
		WishRepo:   wishRepo,
		Artifacts:  artifacts,
	}
}

// eventView is the JSON shape events are rendered as.
type eventView struct {
	ID          uint64  `json:"id"`
	OrganizerID uint64  `json:"organizer_id"`
	Title       string  `json:"title"`
	Venue       string  `json:"venue"`
	EventDate   string  `json:"event_date"`
	BannerURL   *string `json:"banner_url,omitempty"`
}

func toEventView(e *model.Event) eventView {
	return eventView{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Venue:       e.Venue,
		EventDate:   e.EventDate.UTC().Format(time.RFC3339),
		BannerURL:   e.BannerURL,
	}
}

// Create handles POST /v1/events.  Organizer only.
func (h *EventHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !auth.Authorize(actor, auth.ActionCreateEvent, 0) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var body struct {
		Title     string `json:"title"`
		Venue     string `json:"venue"`
		EventDate string `json:"event_date"` // RFC 3339
		BannerURL string `json:"banner_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Venue = strings.TrimSpace(body.Venue)
	if body.Title == "" || body.Venue == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and venue are required"})
	}
	date, err := repository.EventDate(body.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date"})
	}

	e := model.Event{OrganizerID: actor.ID, Title: body.Title, Venue: body.Venue, EventDate: date}
	if u := strings.TrimSpace(body.BannerURL); u != "" {
		e.BannerURL = &u
	}
	if err := h.EventRepo.Create(c.Request().Context(), &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventView(&e))
}

// PublishSeats handles POST /v1/events/:id/seats.  The organizer
// publishes the whole seat layout in one batch.  Layouts are
// append-only; republishing adds rows rather than replacing them, so
// this is meant to be called once per event.
func (h *EventHandler) PublishSeats(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()

	organizerID, err := h.EventRepo.OrganizerOf(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !auth.Authorize(actor, auth.ActionPublishSeats, organizerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var body struct {
		Seats []struct {
			RowLabel   string `json:"row_label"`
			SeatNumber uint32 `json:"seat_number"`
			SeatType   string `json:"seat_type"`
			Price      uint32 `json:"price"`
		} `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}
	seats := make([]model.Seat, 0, len(body.Seats))
	dedupe := make(map[string]bool, len(body.Seats))
	for _, s := range body.Seats {
		row := strings.ToUpper(strings.TrimSpace(s.RowLabel))
		if row == "" || s.SeatNumber == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "row_label and seat_number are required for every seat"})
		}
		if !validSeatTypes[s.SeatType] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_type must be VIP, Premium or Regular"})
		}
		key := row + "#" + strconv.FormatUint(uint64(s.SeatNumber), 10)
		if dedupe[key] {
			continue
		}
		dedupe[key] = true
		seats = append(seats, model.Seat{
			EventID:    eventID,
			RowLabel:   row,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			Price:      s.Price,
		})
	}
	if err := h.SeatRepo.CreateBulk(ctx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event_id": eventID, "seats_created": len(seats)})
}

// List handles GET /v1/events.  Upcoming events by default; pass
// ?include_past=true for everything.
func (h *EventHandler) List(c echo.Context) error {
	includePast := c.QueryParam("include_past") == "true"
	events, err := h.EventRepo.List(c.Request().Context(), includePast)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, toEventView(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": views})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	e, err := h.EventRepo.GetByID(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toEventView(e))
}

// seatView is a seat together with its derived availability status.
type seatView struct {
	ID         uint64 `json:"id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	Price      uint32 `json:"price"`
	Status     string `json:"status"` // available | locked | booked
}

// ListSeats handles GET /v1/events/:id/seats.  Availability is
// computed per request: is_booked wins, then an unexpired hold makes
// the seat locked, otherwise it is available.  A pending order alone
// does not make a seat unavailable here.
func (h *EventHandler) ListSeats(c echo.Context) error {
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
	seats, err := h.SeatRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seatIDs := make([]uint64, 0, len(seats))
	for _, s := range seats {
		seatIDs = append(seatIDs, s.ID)
	}
	locks, err := h.LockRepo.ActiveBySeatIDs(ctx, seatIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		status := "available"
		if s.IsBooked {
			status = "booked"
		} else if _, held := locks[s.ID]; held {
			status = "locked"
		}
		views = append(views, seatView{
			ID:         s.ID,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			Price:      s.Price,
			Status:     status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "seats": views})
}

// Delete handles DELETE /v1/events/:id.  There is no ON DELETE
// CASCADE in the schema, so the handler removes the dependents in
// order inside one transaction: tickets, orders, seat holds, seats,
// waitlist entries, reviews, wishlist entries, then the event itself.
// Stored artifacts (banner, payment proofs) are cleaned up after
// commit, best effort.
func (h *EventHandler) Delete(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()

	organizerID, err := h.EventRepo.OrganizerOf(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !auth.Authorize(actor, auth.ActionDeleteEvent, organizerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	tx, err := h.EventRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// collect artifact URLs before their rows disappear
	bannerURL, err := h.EventRepo.BannerURLTx(ctx, tx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	screenshotURLs, err := h.OrderRepo.ScreenshotURLsByEventTx(ctx, tx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.TickRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.OrderRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// holds join through seats, so they must go before the seats do
	if err := h.LockRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.SeatRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.WaitRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.ReviewRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.WishRepo.DeleteByEventTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.EventRepo.DeleteTx(ctx, tx, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	urls := make([]string, 0, len(screenshotURLs)+1)
	if bannerURL != "" {
		urls = append(urls, bannerURL)
	}
	urls = append(urls, screenshotURLs...)
	storage.BestEffortDelete(context.Background(), h.Artifacts, urls...)

	return c.NoContent(http.StatusNoContent)
}

// JoinWaitlist handles POST /v1/events/:id/waitlist.  Joining twice
// reports 409.
func (h *EventHandler) JoinWaitlist(c echo.Context) error {
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
	if err := h.WaitRepo.Join(ctx, eventID, userID); err != nil {
		if errors.Is(err, repository.ErrAlreadyOnWaitlist) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already on waitlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event_id": eventID, "status": "pending"})
}

// WaitlistStatus handles GET /v1/events/:id/waitlist.  Returns the
// caller's entry status, or on_waitlist=false when they never joined.
func (h *EventHandler) WaitlistStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	status, err := h.WaitRepo.StatusFor(c.Request().Context(), eventID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if status == "" {
		return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "on_waitlist": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "on_waitlist": true, "status": status})
}
