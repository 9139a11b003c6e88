package handler

import (
    "database/sql" // for sentinel errors returned from repository
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strings"      // trimming the scanned code
    "time"         // rendering timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-ticket-booking/internal/auth"       // capability checks
    "github.com/iliyamo/event-ticket-booking/internal/repository" // repository layer
)

// TicketHandler validates and consumes tickets at the venue door and
// lets buyers list their own tickets.
type TicketHandler struct {
	TickRepo *repository.TicketRepo
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(tickRepo *repository.TicketRepo) *TicketHandler {
	if tickRepo == nil {
		panic("nil repository passed to NewTicketHandler")
	}
	return &TicketHandler{TickRepo: tickRepo}
}

// ticketView is the JSON shape tickets are rendered as.
type ticketView struct {
	ID            uint64  `json:"id"`
	OrderID       uint64  `json:"order_id"`
	EventID       uint64  `json:"event_id"`
	SeatID        uint64  `json:"seat_id"`
	QRCodeData    string  `json:"qr_code_data"`
	TicketCode    string  `json:"ticket_code"`
	CheckInStatus string  `json:"check_in_status"`
	CheckedInAt   *string `json:"checked_in_at,omitempty"`
	EventTitle    string  `json:"event_title"`
	RowLabel      string  `json:"row_label"`
	SeatNumber    uint32  `json:"seat_number"`
	SeatType      string  `json:"seat_type"`
	HolderName    string  `json:"holder_name"`
}

func toTicketView(d *repository.TicketDetail) ticketView {
	v := ticketView{
		ID:            d.Ticket.ID,
		OrderID:       d.Ticket.OrderID,
		EventID:       d.Ticket.EventID,
		SeatID:        d.Ticket.SeatID,
		QRCodeData:    d.Ticket.QRCodeData,
		TicketCode:    d.Ticket.TicketCode,
		CheckInStatus: d.Ticket.CheckInStatus,
		EventTitle:    d.EventTitle,
		RowLabel:      d.RowLabel,
		SeatNumber:    d.SeatNumber,
		SeatType:      d.SeatType,
		HolderName:    d.HolderName,
	}
	if d.Ticket.CheckedInAt != nil {
		s := d.Ticket.CheckedInAt.UTC().Format(time.RFC3339)
		v.CheckedInAt = &s
	}
	return v
}

// CheckIn handles POST /v1/tickets/check-in.  The scanner submits
// either the raw QR payload or the 6-character ticket code.  Outcomes:
// an unknown code is invalid, a pending ticket is consumed exactly
// once (result "valid"), and an already consumed ticket reports
// "already_used" together with its details so the operator can see
// when it was first scanned.  A second scan never mutates anything.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !auth.Authorize(actor, auth.ActionCheckInTicket, 0) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	ctx := c.Request().Context()

	detail, err := h.TickRepo.FindByCode(ctx, body.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"result": "invalid", "error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if detail.Ticket.CheckInStatus != "pending" {
		return c.JSON(http.StatusConflict, echo.Map{"result": "already_used", "ticket": toTicketView(detail)})
	}

	if err := h.TickRepo.CheckIn(ctx, detail.Ticket.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			// a concurrent scanner consumed it between read and update
			return c.JSON(http.StatusConflict, echo.Map{"result": "already_used", "ticket": toTicketView(detail)})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	detail.Ticket.CheckInStatus = "checked_in"
	detail.Ticket.CheckedInAt = &now
	return c.JSON(http.StatusOK, echo.Map{"result": "valid", "ticket": toTicketView(detail)})
}

// ListMyTickets handles GET /v1/tickets.  It returns the caller's
// tickets with event and seat details, newest first.
func (h *TicketHandler) ListMyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.TickRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]ticketView, 0, len(details))
	for i := range details {
		views = append(views, toTicketView(&details[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": views})
}
