package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// WishlistRepo provides persistence for per-user event wishlists.
// Like the waitlist, a unique key on (event_id, user_id) makes adding
// idempotent-by-failure: the second insert violates the constraint
// and is reported as ErrAlreadyWishlisted.
type WishlistRepo struct {
	db *sql.DB
}

// NewWishlistRepo returns a new WishlistRepo bound to the given database.
func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Add saves the event to the user's wishlist.
func (r *WishlistRepo) Add(ctx context.Context, eventID, userID uint64) error {
	const q = `INSERT INTO wishlists (event_id, user_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, q, eventID, userID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrAlreadyWishlisted
		}
		return err
	}
	return nil
}

// Remove drops the event from the user's wishlist.  Removing an
// entry that does not exist is a no-op.
func (r *WishlistRepo) Remove(ctx context.Context, eventID, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE event_id = ? AND user_id = ?`, eventID, userID)
	return err
}

// WishlistedEvent is a wishlist entry joined with the saved event's
// display details.
type WishlistedEvent struct {
	EventID   uint64
	Title     string
	Venue     string
	EventDate time.Time
	BannerURL *string
	AddedAt   time.Time
}

// ListByUser returns the user's wishlist with event details, most
// recently saved first.
func (r *WishlistRepo) ListByUser(ctx context.Context, userID uint64) ([]WishlistedEvent, error) {
	const q = `SELECT e.id, e.title, e.venue, e.event_date, e.banner_url, w.created_at
               FROM wishlists w
               JOIN events e ON e.id = w.event_id
               WHERE w.user_id = ?
               ORDER BY w.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]WishlistedEvent, 0)
	for rows.Next() {
		var it WishlistedEvent
		var banner sql.NullString
		if err := rows.Scan(&it.EventID, &it.Title, &it.Venue, &it.EventDate, &banner, &it.AddedAt); err != nil {
			return nil, err
		}
		if banner.Valid {
			u := banner.String
			it.BannerURL = &u
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByEventTx removes an event's wishlist entries as part of the
// event-delete cascade.
func (r *WishlistRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM wishlists WHERE event_id = ?`, eventID)
	return err
}
