package handler

import (
    "context"  // detached context for post-commit side effects
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "time"     // timestamps for the confirmation event

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-ticket-booking/internal/auth"       // capability checks
    "github.com/iliyamo/event-ticket-booking/internal/queue"      // confirmation event payload
    "github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
    qp "github.com/iliyamo/event-ticket-booking/internal/service" // broker publisher
    "github.com/iliyamo/event-ticket-booking/internal/storage"    // payment proof cleanup
)

// OrderHandler owns the two terminal transitions of a pending order:
// approval, which makes the seats durably sold and the tickets valid,
// and rejection, which removes the order and its tickets so the seats
// free up again.  Both transitions are guarded by conditional updates
// on payment_status, so racing invocations cannot re-apply them.
type OrderHandler struct {
	OrderRepo *repository.OrderRepo
	TickRepo  *repository.TicketRepo
	SeatRepo  *repository.SeatRepo
	LockRepo  *repository.SeatLockRepo
	Artifacts storage.ArtifactStore
}

// NewOrderHandler constructs an OrderHandler.  The artifact store may
// be nil, in which case proof screenshots are simply left behind.
func NewOrderHandler(orderRepo *repository.OrderRepo, tickRepo *repository.TicketRepo, seatRepo *repository.SeatRepo, lockRepo *repository.SeatLockRepo, artifacts storage.ArtifactStore) *OrderHandler {
	if orderRepo == nil || tickRepo == nil || seatRepo == nil || lockRepo == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{
		OrderRepo: orderRepo,
		TickRepo:  tickRepo,
		SeatRepo:  seatRepo,
		LockRepo:  lockRepo,
		Artifacts: artifacts,
	}
}

// Approve handles POST /v1/orders/:id/approve.  Within one
// transaction it flips the order to completed, marks its seats as
// booked and drops the now-superseded seat holds.  Approving an order
// that is already completed is a benign no-op.  After commit a
// confirmation event is published to the broker; a publish failure is
// logged by the publisher and never reported to the caller.
func (h *OrderHandler) Approve(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

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

	info, err := h.OrderRepo.GetForApprovalTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !auth.Authorize(actor, auth.ActionApproveOrder, info.OrganizerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.OrderRepo.MarkCompletedTx(ctx, tx, orderID); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			// a concurrent (or earlier) approval won the conditional
			// update; report success without re-applying side effects
			return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "payment_status": "completed", "already_processed": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	seatIDs, err := h.TickRepo.SeatIDsByOrderTx(ctx, tx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.SeatRepo.MarkBookedTx(ctx, tx, seatIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// the durable tickets supersede the advisory holds
	if err := h.LockRepo.DeleteBySeatIDsTx(ctx, tx, seatIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	ticketIDs, err := h.TickRepo.TicketIDsByOrderTx(ctx, tx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	// best effort: the approval stands even if the broker is down
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = qp.PublishTicketConfirmed(pubCtx, queue.TicketConfirmedEvent{
			OrderID:     info.Order.ID,
			UserID:      info.Order.UserID,
			BuyerEmail:  info.BuyerEmail,
			BuyerName:   info.BuyerName,
			EventID:     info.Order.EventID,
			EventTitle:  info.EventTitle,
			Venue:       info.EventVenue,
			EventDate:   info.EventDate.UTC().Format(time.RFC3339),
			TicketIDs:   ticketIDs,
			TotalAmount: info.Order.TotalAmount,
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"order_id":       orderID,
		"payment_status": "completed",
		"seats_booked":   len(seatIDs),
	})
}

// Reject handles POST /v1/orders/:id/reject.  It deletes the order's
// tickets and then the order itself, freeing the seats implicitly
// since is_booked was never set.  There is no rejected resting state;
// a rejected order is simply gone, and a later reject of the same id
// reports 404.  Rejecting a completed order is refused.  The uploaded
// payment proof is removed from artifact storage after commit, best
// effort.
func (h *OrderHandler) Reject(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

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

	info, err := h.OrderRepo.GetForApprovalTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !auth.Authorize(actor, auth.ActionRejectOrder, info.OrganizerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.TickRepo.DeleteByOrderTx(ctx, tx, orderID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.OrderRepo.DeleteTx(ctx, tx, orderID); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			// completed orders cannot be rejected
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if info.Order.PaymentScreenshotURL != nil {
		storage.BestEffortDelete(context.Background(), h.Artifacts, *info.Order.PaymentScreenshotURL)
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "rejected": true})
}

// ListEventOrders handles GET /v1/events/:id/orders.  Organizers see
// the orders of their own events; admins see any event's orders.
func (h *OrderHandler) ListEventOrders(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	orders, err := h.OrderRepo.ListByEventForOwner(c.Request().Context(), eventID, actor.ID, actor.Role == auth.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": toOrderViews(orders)})
}
