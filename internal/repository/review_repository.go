package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// ReviewRepo provides persistence for event reviews.  One review per
// user per event is enforced by a unique key on (event_id, user_id);
// a second submission violates it and is reported as
// ErrAlreadyReviewed.  Whether the user may review at all (attended
// the event) is decided by the caller, not here.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and populates the generated ID and
// timestamp on the provided record.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (event_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, rv.EventID, rv.UserID, rv.Rating, rv.Comment)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrAlreadyReviewed
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	const sel = `SELECT created_at FROM reviews WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, rv.ID).Scan(&rv.CreatedAt)
}

// ReviewDetail is a review joined with the reviewer's display name.
type ReviewDetail struct {
	Review       model.Review
	ReviewerName string
}

// ListByEvent returns an event's reviews, newest first, each with the
// reviewer's name.
func (r *ReviewRepo) ListByEvent(ctx context.Context, eventID uint64) ([]ReviewDetail, error) {
	const q = `SELECT r.id, r.event_id, r.user_id, r.rating, r.comment, r.created_at, u.full_name
               FROM reviews r
               JOIN users u ON u.id = r.user_id
               WHERE r.event_id = ?
               ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReviewDetail, 0)
	for rows.Next() {
		var d ReviewDetail
		if err := rows.Scan(
			&d.Review.ID, &d.Review.EventID, &d.Review.UserID,
			&d.Review.Rating, &d.Review.Comment, &d.Review.CreatedAt,
			&d.ReviewerName,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteByEventTx removes an event's reviews as part of the
// event-delete cascade.
func (r *ReviewRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE event_id = ?`, eventID)
	return err
}
