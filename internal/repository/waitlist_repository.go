package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// WaitlistRepo provides persistence for event waitlists.  A unique
// key on (event_id, user_id) makes joining idempotent-by-failure:
// the second insert violates the constraint and is reported as
// ErrAlreadyOnWaitlist instead of creating a duplicate.
type WaitlistRepo struct {
    db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Join adds the user to the event's waitlist.
func (r *WaitlistRepo) Join(ctx context.Context, eventID, userID uint64) error {
    const q = `INSERT INTO waitlists (event_id, user_id, status) VALUES (?, ?, 'pending')`
    _, err := r.db.ExecContext(ctx, q, eventID, userID)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return ErrAlreadyOnWaitlist
        }
        return err
    }
    return nil
}

// StatusFor returns the user's waitlist status for an event, or an
// empty string when they are not on the list.
func (r *WaitlistRepo) StatusFor(ctx context.Context, eventID, userID uint64) (string, error) {
    var status string
    err := r.db.QueryRowContext(ctx,
        `SELECT status FROM waitlists WHERE event_id = ? AND user_id = ?`, eventID, userID).Scan(&status)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return "", nil
        }
        return "", err
    }
    return status, nil
}

// DeleteByEventTx removes an event's waitlist entries as part of the
// event-delete cascade.
func (r *WaitlistRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM waitlists WHERE event_id = ?`, eventID)
    return err
}
