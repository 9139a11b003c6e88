package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/event-ticket-booking/internal/model"
)

// SeatLockRepo provides data access to the seat_locks table.  The
// table carries a unique key on seat_id, so at most one lock row can
// exist per seat at any instant.  Expiry is passive – there is no
// background sweeper; every reader treats a row whose expires_at is
// in the past as absent, and Acquire overwrites such rows.  All
// timestamp comparisons happen in the database against
// UTC_TIMESTAMP() so that multiple server instances agree on expiry.
type SeatLockRepo struct {
    db *sql.DB
}

// NewSeatLockRepo returns a new SeatLockRepo bound to the provided database.
func NewSeatLockRepo(db *sql.DB) *SeatLockRepo { return &SeatLockRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SeatLockRepo) DB() *sql.DB { return r.db }

// Acquire attempts to take (or refresh) the lock on a seat for a user.
// The whole check-and-set happens in a single INSERT .. ON DUPLICATE
// KEY UPDATE statement: the update branch only replaces the row when
// the existing lock is expired or already belongs to the same user.
// A lock held by a different user with expires_at still in the future
// is left untouched.  The row is then read back and the attempt
// succeeds iff the surviving row belongs to the caller and is
// unexpired.  Returns ErrSeatUnavailable on contention loss.
func (r *SeatLockRepo) Acquire(ctx context.Context, seatID, userID uint64, duration time.Duration) (time.Time, error) {
    expiresAt := time.Now().UTC().Add(duration).Truncate(time.Second)
    const upsert = `INSERT INTO seat_locks (seat_id, user_id, expires_at)
                    VALUES (?, ?, ?)
                    ON DUPLICATE KEY UPDATE
                        user_id    = IF(expires_at <= UTC_TIMESTAMP() OR user_id = VALUES(user_id), VALUES(user_id), user_id),
                        expires_at = IF(expires_at <= UTC_TIMESTAMP() OR user_id = VALUES(user_id), VALUES(expires_at), expires_at)`
    if _, err := r.db.ExecContext(ctx, upsert, seatID, userID, expiresAt.Format("2006-01-02 15:04:05")); err != nil {
        return time.Time{}, err
    }
    // Read the surviving row: whoever it names is the lock holder.
    const verify = `SELECT user_id, expires_at FROM seat_locks
                    WHERE seat_id = ? AND expires_at > UTC_TIMESTAMP()`
    var holder uint64
    var exp time.Time
    err := r.db.QueryRowContext(ctx, verify, seatID).Scan(&holder, &exp)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            // Row expired between write and read; treat as lost.
            return time.Time{}, ErrSeatUnavailable
        }
        return time.Time{}, err
    }
    if holder != userID {
        return time.Time{}, ErrSeatUnavailable
    }
    return exp, nil
}

// Release removes the caller's lock on a seat.  Releasing a lock that
// does not exist (or that belongs to someone else) is a no-op: expiry
// self-heals, so explicit release is an optimisation, not a
// correctness requirement.
func (r *SeatLockRepo) Release(ctx context.Context, seatID, userID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `DELETE FROM seat_locks WHERE seat_id = ? AND user_id = ?`, seatID, userID)
    return err
}

// ActiveBySeatIDs returns the locks that are still valid for the given
// seats, keyed by seat ID.  Expired rows are filtered in SQL.  Used to
// derive the "locked" availability state in seat listings.
func (r *SeatLockRepo) ActiveBySeatIDs(ctx context.Context, seatIDs []uint64) (map[uint64]model.SeatLock, error) {
    out := make(map[uint64]model.SeatLock)
    if len(seatIDs) == 0 {
        return out, nil
    }
    query := `SELECT seat_id, user_id, expires_at, created_at FROM seat_locks
              WHERE expires_at > UTC_TIMESTAMP() AND seat_id IN (`
    args := make([]interface{}, 0, len(seatIDs))
    for i, id := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, id)
    }
    query += ")"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var l model.SeatLock
        if err := rows.Scan(&l.SeatID, &l.UserID, &l.ExpiresAt, &l.CreatedAt); err != nil {
            return nil, err
        }
        out[l.SeatID] = l
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// DeleteBySeatIDsTx removes lock rows for the given seats within an
// existing transaction.  Called when an order covering those seats is
// approved: the durable tickets supersede the advisory locks.
func (r *SeatLockRepo) DeleteBySeatIDsTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `DELETE FROM seat_locks WHERE seat_id IN (`
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

// DeleteByEventTx removes every lock row belonging to an event's
// seats.  Part of the manual cascade when an event is deleted.
func (r *SeatLockRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    const q = `DELETE sl FROM seat_locks sl
               JOIN seats s ON s.id = sl.seat_id
               WHERE s.event_id = ?`
    _, err := tx.ExecContext(ctx, q, eventID)
    return err
}
