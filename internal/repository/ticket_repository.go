package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/event-ticket-booking/internal/model"
)

// TicketRepo provides data access to the tickets table.  Tickets are
// created atomically with their order, deleted when the order is
// rejected, and consumed exactly once at the venue via a conditional
// check-in update.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// TicketClaim describes an existing ticket occupying one of the seats
// a booking attempt wants, together with the payment status of its
// order.  The booking orchestrator uses these rows to decide between
// failing (seat confirmed or mid-checkout by someone else) and
// idempotent replay (all claims pending and owned by the caller).
type TicketClaim struct {
    TicketID      uint64
    OrderID       uint64
    UserID        uint64
    SeatID        uint64
    PaymentStatus string
}

// ClaimsOnSeatsTx returns every ticket sitting on any of the given
// seats joined to its order's payment status.  Rows are locked
// (FOR UPDATE) so two concurrent bookings for overlapping seat sets
// serialize.
func (r *TicketRepo) ClaimsOnSeatsTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) ([]TicketClaim, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    query := `SELECT t.id, t.order_id, t.user_id, t.seat_id, o.payment_status
              FROM tickets t
              JOIN orders o ON o.id = t.order_id
              WHERE t.seat_id IN (`
    args := make([]interface{}, 0, len(seatIDs))
    for i, id := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, id)
    }
    query += ") FOR UPDATE"
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var claims []TicketClaim
    for rows.Next() {
        var c TicketClaim
        if err := rows.Scan(&c.TicketID, &c.OrderID, &c.UserID, &c.SeatID, &c.PaymentStatus); err != nil {
            return nil, err
        }
        claims = append(claims, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return claims, nil
}

// CreateBatchTx inserts all tickets of an order in one statement.  A
// duplicate-key violation on the ticket_code unique index surfaces as
// ErrDuplicateTicketCode so the caller can regenerate the codes and
// retry; any other duplicate-key error is returned as-is.
func (r *TicketRepo) CreateBatchTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    query := `INSERT INTO tickets (order_id, user_id, event_id, seat_id, qr_code_data, ticket_code) VALUES `
    args := make([]interface{}, 0, len(tickets)*6)
    for i, t := range tickets {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?)"
        args = append(args, t.OrderID, t.UserID, t.EventID, t.SeatID, t.QRCodeData, t.TicketCode)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 && strings.Contains(me.Message, "ticket_code") {
            return ErrDuplicateTicketCode
        }
        return err
    }
    return nil
}

// SeatIDsByOrderTx returns the seat IDs covered by an order's
// tickets.  Approval uses this to know which seats to mark booked;
// an approved order with no tickets is unusual but not an error, so
// an empty slice is a valid result.
func (r *TicketRepo) SeatIDsByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]uint64, error) {
    rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM tickets WHERE order_id = ?`, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seatIDs []uint64
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        seatIDs = append(seatIDs, sid)
    }
    return seatIDs, rows.Err()
}

// DeleteByOrderTx removes all tickets of an order (rejection path).
// Deleting zero rows is fine: a concurrent reject may already have
// cleaned them up.
func (r *TicketRepo) DeleteByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE order_id = ?`, orderID)
    return err
}

// TicketDetail is a ticket joined with the display information a
// scanner operator needs: the event, the seat and who bought it.
type TicketDetail struct {
    Ticket     model.Ticket `json:"ticket"`
    EventTitle string       `json:"event_title"`
    RowLabel   string       `json:"row_label"`
    SeatNumber uint32       `json:"seat_number"`
    SeatType   string       `json:"seat_type"`
    HolderName string       `json:"holder_name"`
}

// FindByCode looks a ticket up by either its raw QR payload or its
// short human code.  Returns sql.ErrNoRows when nothing matches.
func (r *TicketRepo) FindByCode(ctx context.Context, code string) (*TicketDetail, error) {
    const q = `SELECT t.id, t.order_id, t.user_id, t.event_id, t.seat_id,
                      t.qr_code_data, t.ticket_code, t.check_in_status, t.checked_in_at, t.created_at,
                      e.title, s.row_label, s.seat_number, s.seat_type, u.full_name
               FROM tickets t
               JOIN events e ON e.id = t.event_id
               JOIN seats s ON s.id = t.seat_id
               JOIN users u ON u.id = t.user_id
               WHERE t.qr_code_data = ? OR t.ticket_code = ?
               LIMIT 1`
    var d TicketDetail
    var checkedInAt sql.NullTime
    err := r.db.QueryRowContext(ctx, q, code, code).Scan(
        &d.Ticket.ID, &d.Ticket.OrderID, &d.Ticket.UserID, &d.Ticket.EventID, &d.Ticket.SeatID,
        &d.Ticket.QRCodeData, &d.Ticket.TicketCode, &d.Ticket.CheckInStatus, &checkedInAt, &d.Ticket.CreatedAt,
        &d.EventTitle, &d.RowLabel, &d.SeatNumber, &d.SeatType, &d.HolderName,
    )
    if err != nil {
        return nil, err
    }
    if checkedInAt.Valid {
        t := checkedInAt.Time
        d.Ticket.CheckedInAt = &t
    }
    return &d, nil
}

// CheckIn consumes a ticket.  The update is conditional on the
// pending status: of two scanners racing on the same code, exactly
// one observes an affected row; the other gets ErrAlreadyProcessed.
// There is deliberately no read-then-write here.
func (r *TicketRepo) CheckIn(ctx context.Context, ticketID uint64) error {
    const q = `UPDATE tickets SET check_in_status = 'checked_in', checked_in_at = UTC_TIMESTAMP()
               WHERE id = ? AND check_in_status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, ticketID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAlreadyProcessed
    }
    return nil
}

// ListByUser returns the user's tickets with display details, newest
// first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
    const q = `SELECT t.id, t.order_id, t.user_id, t.event_id, t.seat_id,
                      t.qr_code_data, t.ticket_code, t.check_in_status, t.checked_in_at, t.created_at,
                      e.title, s.row_label, s.seat_number, s.seat_type, u.full_name
               FROM tickets t
               JOIN events e ON e.id = t.event_id
               JOIN seats s ON s.id = t.seat_id
               JOIN users u ON u.id = t.user_id
               WHERE t.user_id = ?
               ORDER BY t.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]TicketDetail, 0)
    for rows.Next() {
        var d TicketDetail
        var checkedInAt sql.NullTime
        if err := rows.Scan(
            &d.Ticket.ID, &d.Ticket.OrderID, &d.Ticket.UserID, &d.Ticket.EventID, &d.Ticket.SeatID,
            &d.Ticket.QRCodeData, &d.Ticket.TicketCode, &d.Ticket.CheckInStatus, &checkedInAt, &d.Ticket.CreatedAt,
            &d.EventTitle, &d.RowLabel, &d.SeatNumber, &d.SeatType, &d.HolderName,
        ); err != nil {
            return nil, err
        }
        if checkedInAt.Valid {
            t := checkedInAt.Time
            d.Ticket.CheckedInAt = &t
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// TicketIDsByOrderTx returns the ticket IDs of an order, used when
// composing the confirmation notification.
func (r *TicketRepo) TicketIDsByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]uint64, error) {
    rows, err := tx.QueryContext(ctx, `SELECT id FROM tickets WHERE order_id = ?`, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// DeleteByEventTx removes every ticket belonging to an event's
// orders.  Part of the manual cascade when an event is deleted.
func (r *TicketRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE event_id = ?`, eventID)
    return err
}
