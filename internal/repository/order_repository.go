package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/event-ticket-booking/internal/model"
)

// OrderRepo provides CRUD operations for orders.  An order is the
// durable record of a purchase attempt and the anchor of the payment
// approval state machine: pending → completed via a conditional
// update, or pending → gone via rejection (orders are deleted, not
// archived).  Both terminal transitions are guarded by
// payment_status predicates so a double-invocation can never
// re-apply a transition partially.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new pending order within the scope of an
// existing transaction and populates the generated ID and timestamps
// on the provided record.  The caller must commit or roll back the
// transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (user_id, event_id, total_amount, payment_status, payment_method)
               VALUES (?, ?, ?, 'pending', ?)`
    result, err := tx.ExecContext(ctx, q, o.UserID, o.EventID, o.TotalAmount, o.PaymentMethod)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    o.PaymentStatus = "pending"
    const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID loads a single order.  Returns ErrOrderNotFound when no row
// matches.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
    const q = `SELECT id, user_id, event_id, total_amount, payment_status, payment_method,
                      payment_screenshot_url, created_at, updated_at
               FROM orders WHERE id = ?`
    var o model.Order
    var screenshot sql.NullString
    err := r.db.QueryRowContext(ctx, q, orderID).Scan(
        &o.ID, &o.UserID, &o.EventID, &o.TotalAmount, &o.PaymentStatus, &o.PaymentMethod,
        &screenshot, &o.CreatedAt, &o.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    if screenshot.Valid {
        u := screenshot.String
        o.PaymentScreenshotURL = &u
    }
    return &o, nil
}

// ApprovalInfo carries everything the approval and rejection
// transitions need in one read: the order itself, the organizer who
// owns the event (for authorization scoping), and the buyer/event
// details used to build the confirmation notification.
type ApprovalInfo struct {
    Order       model.Order
    OrganizerID uint64
    EventTitle  string
    EventVenue  string
    EventDate   time.Time
    BuyerEmail  string
    BuyerName   string
}

// GetForApprovalTx loads an order joined to its event and buyer
// within a transaction.  Returns ErrOrderNotFound when the order does
// not exist (including when it was already rejected and deleted).
func (r *OrderRepo) GetForApprovalTx(ctx context.Context, tx *sql.Tx, orderID uint64) (*ApprovalInfo, error) {
    const q = `SELECT o.id, o.user_id, o.event_id, o.total_amount, o.payment_status, o.payment_method,
                      o.payment_screenshot_url, o.created_at, o.updated_at,
                      e.organizer_id, e.title, e.venue, e.event_date,
                      u.email, u.full_name
               FROM orders o
               JOIN events e ON e.id = o.event_id
               JOIN users u ON u.id = o.user_id
               WHERE o.id = ?`
    var info ApprovalInfo
    var screenshot sql.NullString
    err := tx.QueryRowContext(ctx, q, orderID).Scan(
        &info.Order.ID, &info.Order.UserID, &info.Order.EventID, &info.Order.TotalAmount,
        &info.Order.PaymentStatus, &info.Order.PaymentMethod, &screenshot,
        &info.Order.CreatedAt, &info.Order.UpdatedAt,
        &info.OrganizerID, &info.EventTitle, &info.EventVenue, &info.EventDate,
        &info.BuyerEmail, &info.BuyerName,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    if screenshot.Valid {
        u := screenshot.String
        info.Order.PaymentScreenshotURL = &u
    }
    return &info, nil
}

// MarkCompletedTx transitions an order from pending to completed.
// The update is conditional on the current status, so of N concurrent
// approvals exactly one observes an affected row; the rest receive
// ErrAlreadyProcessed and must not re-apply side effects.
func (r *OrderRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
    const q = `UPDATE orders SET payment_status = 'completed', updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND payment_status = 'pending'`
    res, err := tx.ExecContext(ctx, q, orderID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAlreadyProcessed
    }
    return nil
}

// DeleteTx removes an order as the final step of rejection.  Only
// pending orders can be rejected; attempting to delete a completed
// order affects no rows and returns ErrAlreadyProcessed.  The
// order's tickets must be deleted first (no ON DELETE CASCADE is
// assumed).
func (r *OrderRepo) DeleteTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
    const q = `DELETE FROM orders WHERE id = ? AND payment_status = 'pending'`
    res, err := tx.ExecContext(ctx, q, orderID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrAlreadyProcessed
    }
    return nil
}

// AttachPaymentProof records the payment screenshot URL on a pending
// order owned by the given user.  Ownership and status are enforced
// in the predicate; zero affected rows means the order is missing,
// not the caller's, or no longer pending.
func (r *OrderRepo) AttachPaymentProof(ctx context.Context, orderID, userID uint64, url string) error {
    const q = `UPDATE orders SET payment_screenshot_url = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND user_id = ? AND payment_status = 'pending'`
    res, err := r.db.ExecContext(ctx, q, url, orderID, userID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrOrderNotFound
    }
    return nil
}

// HasCompletedOrder reports whether the user holds at least one
// approved order for the event.  Review submission uses this as its
// attendance guard.
func (r *OrderRepo) HasCompletedOrder(ctx context.Context, eventID, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(
                   SELECT 1 FROM orders
                   WHERE event_id = ? AND user_id = ? AND payment_status = 'completed')`
	var attended bool
	if err := r.db.QueryRowContext(ctx, q, eventID, userID).Scan(&attended); err != nil {
		return false, err
	}
	return attended, nil
}

// ListByUser returns all orders created by a user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
    const q = `SELECT id, user_id, event_id, total_amount, payment_status, payment_method,
                      payment_screenshot_url, created_at, updated_at
               FROM orders WHERE user_id = ? ORDER BY created_at DESC`
    return r.list(ctx, q, userID)
}

// ListByEventForOwner returns all orders for an event when accessed
// by its organizer (or an admin, in which case ownership is not
// checked by the caller).  It verifies that the event exists and that
// the organizer owns it; otherwise ErrForbidden is returned.
func (r *OrderRepo) ListByEventForOwner(ctx context.Context, eventID, organizerID uint64, isAdmin bool) ([]model.Order, error) {
    const checkQ = `SELECT organizer_id FROM events WHERE id = ?`
    var actual uint64
    if err := r.db.QueryRowContext(ctx, checkQ, eventID).Scan(&actual); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEventNotFound
        }
        return nil, err
    }
    if !isAdmin && actual != organizerID {
        return nil, ErrForbidden
    }
    const q = `SELECT id, user_id, event_id, total_amount, payment_status, payment_method,
                      payment_screenshot_url, created_at, updated_at
               FROM orders WHERE event_id = ? ORDER BY created_at DESC`
    return r.list(ctx, q, eventID)
}

// ScreenshotURLsByEventTx collects the payment proof URLs of every
// order on an event so the event-delete cascade can clean the
// artifacts up (best effort).
func (r *OrderRepo) ScreenshotURLsByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]string, error) {
    const q = `SELECT payment_screenshot_url FROM orders
               WHERE event_id = ? AND payment_screenshot_url IS NOT NULL`
    rows, err := tx.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var urls []string
    for rows.Next() {
        var u string
        if err := rows.Scan(&u); err != nil {
            return nil, err
        }
        urls = append(urls, u)
    }
    return urls, rows.Err()
}

// DeleteByEventTx removes every order of an event.  Tickets must be
// deleted first.
func (r *OrderRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE event_id = ?`, eventID)
    return err
}

func (r *OrderRepo) list(ctx context.Context, query string, arg interface{}) ([]model.Order, error) {
    rows, err := r.db.QueryContext(ctx, query, arg)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    for rows.Next() {
        var o model.Order
        var screenshot sql.NullString
        if err := rows.Scan(
            &o.ID, &o.UserID, &o.EventID, &o.TotalAmount, &o.PaymentStatus, &o.PaymentMethod,
            &screenshot, &o.CreatedAt, &o.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        if screenshot.Valid {
            u := screenshot.String
            o.PaymentScreenshotURL = &u
        }
        orders = append(orders, o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return orders, nil
}
