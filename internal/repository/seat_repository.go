package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-ticket-booking/internal/model"
)

// SeatRepo encapsulates database operations for the seats table.
// Seat rows are read-mostly reference data: they are created in bulk
// when an event's layout is published and never deleted except with
// the owning event.  The is_booked flag is mutated exclusively by
// MarkBookedTx, which only the payment approval transition calls.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// CreateBulk inserts multiple seats in a single statement.  Used when
// an event's layout is published.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO seats (event_id, row_label, seat_number, seat_type, price) VALUES `
    args := make([]interface{}, 0, len(seats)*5)
    for i, seat := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        args = append(args, seat.EventID, seat.RowLabel, seat.SeatNumber, seat.SeatType, seat.Price)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// ListByEvent retrieves all seats of an event ordered by row_label
// then seat_number.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
    const q = `SELECT id, event_id, row_label, seat_number, seat_type, price, is_booked, created_at, updated_at
               FROM seats
               WHERE event_id = ?
               ORDER BY row_label, seat_number`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(
            &s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
            &s.Price, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// GetForEvent loads a single seat and verifies it belongs to the
// given event.  Returns ErrSeatsNotFound when no such seat exists.
func (r *SeatRepo) GetForEvent(ctx context.Context, eventID, seatID uint64) (*model.Seat, error) {
    const q = `SELECT id, event_id, row_label, seat_number, seat_type, price, is_booked, created_at, updated_at
               FROM seats WHERE id = ? AND event_id = ?`
    var s model.Seat
    err := r.db.QueryRowContext(ctx, q, seatID, eventID).Scan(
        &s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
        &s.Price, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrSeatsNotFound
        }
        return nil, err
    }
    return &s, nil
}

// GetByIDsForEventTx fetches the requested seats of an event inside a
// transaction, locking the rows (FOR UPDATE) so concurrent booking
// attempts serialize on them.  Returns ErrSeatsNotFound when any of
// the requested IDs is stale or does not belong to the event.
func (r *SeatRepo) GetByIDsForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    query := `SELECT id, event_id, row_label, seat_number, seat_type, price, is_booked, created_at, updated_at
              FROM seats WHERE event_id = ? AND id IN (`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, eventID)
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

    var result []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(
            &s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
            &s.Price, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(result) != len(seatIDs) {
        return nil, ErrSeatsNotFound
    }
    return result, nil
}

// MarkBookedTx sets is_booked = true on the given seats within an
// existing transaction.  The statement is idempotent: seats that are
// already booked are simply matched again without error, so a
// replayed approval cannot fail here.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `UPDATE seats SET is_booked = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id IN (`
    args := make([]interface{}, 0, len(seatIDs))
    for i, id := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, id)
    }
    query += ")"
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// DeleteByEventTx removes all seats of an event.  Part of the manual
// cascade when an event is deleted; callers must verify ownership
// before calling.
func (r *SeatRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE event_id = ?`, eventID)
    return err
}
