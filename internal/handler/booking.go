package handler

import (
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strings"  // trimming request fields
    "time"     // lock durations

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-ticket-booking/internal/config"     // seat lock TTL
    "github.com/iliyamo/event-ticket-booking/internal/model"      // domain records
    "github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
    "github.com/iliyamo/event-ticket-booking/internal/utils"      // qr payload and ticket code generation
)

// ticketCodeRetries bounds how often a booking regenerates its ticket
// codes after a unique-index collision before giving up.
const ticketCodeRetries = 3

// BookingHandler groups the repositories required to lock seats and
// convert locks into orders with pending tickets.  JWT authentication
// is assumed to have run already; methods return 401 when the user ID
// cannot be extracted from the context.  Booking creation runs inside
// a single transaction so an order can never be left without its
// tickets.
type BookingHandler struct {
	Cfg       config.Config
	EventRepo *repository.EventRepo
	SeatRepo  *repository.SeatRepo
	LockRepo  *repository.SeatLockRepo
	OrderRepo *repository.OrderRepo
	TickRepo  *repository.TicketRepo
}

// NewBookingHandler constructs a BookingHandler.  All repositories
// must be non-nil.
func NewBookingHandler(cfg config.Config, eventRepo *repository.EventRepo, seatRepo *repository.SeatRepo, lockRepo *repository.SeatLockRepo, orderRepo *repository.OrderRepo, tickRepo *repository.TicketRepo) *BookingHandler {
	if eventRepo == nil || seatRepo == nil || lockRepo == nil || orderRepo == nil || tickRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		Cfg:       cfg,
		EventRepo: eventRepo,
		SeatRepo:  seatRepo,
		LockRepo:  lockRepo,
		OrderRepo: orderRepo,
		TickRepo:  tickRepo,
	}
}

// LockSeat handles POST /v1/events/:id/seats/:seatId/lock.  It grants
// the caller a short exclusive hold on one seat so checkout can finish
// without losing it to another buyer.  The hold is refreshed when the
// same user locks the same seat again.  A seat that is already sold,
// or held by a different user whose hold has not expired, yields 409.
func (h *BookingHandler) LockSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	seatID, err := pathID(c, "seatId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	ctx := c.Request().Context()

	seat, err := h.SeatRepo.GetForEvent(ctx, eventID, seatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatsNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if seat.IsBooked {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
	}

	expiresAt, err := h.LockRepo.Acquire(ctx, seatID, userID, time.Duration(h.Cfg.SeatLockTTLMin)*time.Minute)
	if err != nil {
		if errors.Is(err, repository.ErrSeatUnavailable) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seat_id":    seatID,
		"expires_at": expiresAt,
	})
}

// ReleaseSeat handles DELETE /v1/events/:id/seats/:seatId/lock.  It
// drops the caller's hold on the seat.  Releasing a hold that does
// not exist, has expired, or belongs to someone else is a no-op;
// expiry self-heals either way.
func (h *BookingHandler) ReleaseSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seatID, err := pathID(c, "seatId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	if err := h.LockRepo.Release(c.Request().Context(), seatID, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateBooking handles POST /v1/events/:id/bookings.  It converts a
// set of seats the caller has been holding into one pending order with
// one ticket per seat, all inside a single transaction.  Re-submitting
// the same seats while the caller's previous order is still pending
// returns that order's id again instead of creating a duplicate.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// deduplicate seat IDs so a double-tapped seat cannot yield two tickets
	unique := make([]uint64, 0, len(body.SeatIDs))
	seen := make(map[uint64]struct{})
	for _, id := range body.SeatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.OrderRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// fetch and row-lock the seats; stale or garbage ids surface as
	// ErrSeatsNotFound
	seats, err := h.SeatRepo.GetByIDsForEventTx(ctx, tx, eventID, unique)
	if err != nil {
		if errors.Is(err, repository.ErrSeatsNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrSeatsNotFound.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// inspect existing tickets on these seats together with their
	// order's payment status
	claims, err := h.TickRepo.ClaimsOnSeatsTx(ctx, tx, unique)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	replayOrderID, err := classifyClaims(claims, userID)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if replayOrderID != 0 {
		// the caller already has a pending order on these seats;
		// hand the same id back instead of creating a duplicate
		return c.JSON(http.StatusOK, echo.Map{"order_id": replayOrderID, "replayed": true})
	}

	// is_booked guard for any path that bypassed locking
	total, err := priceAvailableSeats(seats)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	order := model.Order{UserID: userID, EventID: eventID, TotalAmount: total, PaymentMethod: "upi"}
	if err := h.OrderRepo.CreateTx(ctx, tx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	// ticket codes carry a unique index, so regenerate and retry on
	// the (rare) collision
	var batchErr error
	for attempt := 0; attempt < ticketCodeRetries; attempt++ {
		tickets := make([]model.Ticket, 0, len(seats))
		for _, s := range seats {
			code, err := utils.NewTicketCode()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate ticket code failed"})
			}
			tickets = append(tickets, model.Ticket{
				OrderID:    order.ID,
				UserID:     userID,
				EventID:    eventID,
				SeatID:     s.ID,
				QRCodeData: utils.NewQRCodeData(order.ID, s.ID),
				TicketCode: code,
			})
		}
		batchErr = h.TickRepo.CreateBatchTx(ctx, tx, tickets)
		if !errors.Is(batchErr, repository.ErrDuplicateTicketCode) {
			break
		}
	}
	if batchErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tickets failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"seat_count":   len(seats),
	})
}

// classifyClaims decides what existing tickets on the requested seats
// mean for this booking attempt.  When every claim belongs to the
// caller's own still-pending order, that order's id is returned so
// the attempt can be replayed.  Any claim that is completed, or
// pending under a different user, yields ErrSeatsUnavailable.
func classifyClaims(claims []repository.TicketClaim, userID uint64) (uint64, error) {
	var replayOrderID uint64
	for _, cl := range claims {
		if cl.PaymentStatus != "pending" || cl.UserID != userID {
			return 0, repository.ErrSeatsUnavailable
		}
		replayOrderID = cl.OrderID
	}
	return replayOrderID, nil
}

// priceAvailableSeats sums the seat prices, refusing with
// ErrSeatsUnavailable when any seat is already marked booked.
func priceAvailableSeats(seats []model.Seat) (uint32, error) {
	var total uint32
	for _, s := range seats {
		if s.IsBooked {
			return 0, repository.ErrSeatsUnavailable
		}
		total += s.Price
	}
	return total, nil
}

// AttachPaymentProof handles PATCH /v1/orders/:id/payment-proof.  The
// buyer records the URL of their uploaded payment screenshot on their
// own still-pending order.
func (h *BookingHandler) AttachPaymentProof(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		ScreenshotURL string `json:"screenshot_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.ScreenshotURL = strings.TrimSpace(body.ScreenshotURL)
	if body.ScreenshotURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screenshot_url is required"})
	}

	err = h.OrderRepo.AttachPaymentProof(c.Request().Context(), orderID, userID, body.ScreenshotURL)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pending order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "screenshot_url": body.ScreenshotURL})
}

// ListMyOrders handles GET /v1/orders.  It returns the caller's
// orders, newest first.
func (h *BookingHandler) ListMyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.OrderRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": toOrderViews(orders)})
}

// orderView is the JSON shape orders are rendered as.
type orderView struct {
	ID                   uint64  `json:"id"`
	UserID               uint64  `json:"user_id"`
	EventID              uint64  `json:"event_id"`
	TotalAmount          uint32  `json:"total_amount"`
	PaymentStatus        string  `json:"payment_status"`
	PaymentMethod        string  `json:"payment_method"`
	PaymentScreenshotURL *string `json:"payment_screenshot_url,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func toOrderViews(orders []model.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView{
			ID:                   o.ID,
			UserID:               o.UserID,
			EventID:              o.EventID,
			TotalAmount:          o.TotalAmount,
			PaymentStatus:        o.PaymentStatus,
			PaymentMethod:        o.PaymentMethod,
			PaymentScreenshotURL: o.PaymentScreenshotURL,
			CreatedAt:            o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}
