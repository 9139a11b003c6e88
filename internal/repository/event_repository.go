package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/event-ticket-booking/internal/model"
)

// EventRepo encapsulates database operations for the events table.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo constructs an EventRepo given a DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts a new event and populates the generated ID on the
// provided record.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    const q = `INSERT INTO events (organizer_id, title, venue, event_date, banner_url)
               VALUES (?, ?, ?, ?, ?)`
    var banner interface{}
    if e.BannerURL != nil {
        banner = *e.BannerURL
    }
    res, err := r.db.ExecContext(ctx, q,
        e.OrganizerID, e.Title, e.Venue, e.EventDate.UTC().Format("2006-01-02 15:04:05"), banner)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// GetByID loads a single event.  Returns ErrEventNotFound when no row
// matches.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*model.Event, error) {
    const q = `SELECT id, organizer_id, title, venue, event_date, banner_url, created_at, updated_at
               FROM events WHERE id = ?`
    var e model.Event
    var banner sql.NullString
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(
        &e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.EventDate, &banner, &e.CreatedAt, &e.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEventNotFound
        }
        return nil, err
    }
    if banner.Valid {
        b := banner.String
        e.BannerURL = &b
    }
    return &e, nil
}

// List returns upcoming events ordered by date.  Past events are
// filtered with a database-side UTC comparison so listings agree
// across server instances.
func (r *EventRepo) List(ctx context.Context, includePast bool) ([]model.Event, error) {
    q := `SELECT id, organizer_id, title, venue, event_date, banner_url, created_at, updated_at
          FROM events`
    if !includePast {
        q += ` WHERE event_date >= UTC_TIMESTAMP()`
    }
    q += ` ORDER BY event_date`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.Event, 0)
    for rows.Next() {
        var e model.Event
        var banner sql.NullString
        if err := rows.Scan(
            &e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.EventDate, &banner, &e.CreatedAt, &e.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        if banner.Valid {
            b := banner.String
            e.BannerURL = &b
        }
        events = append(events, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return events, nil
}

// OrganizerOf returns the organizer_id of an event, or
// ErrEventNotFound.  Used by the capability check to scope organizer
// actions to their own events.
func (r *EventRepo) OrganizerOf(ctx context.Context, eventID uint64) (uint64, error) {
    var organizerID uint64
    err := r.db.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&organizerID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return 0, ErrEventNotFound
        }
        return 0, err
    }
    return organizerID, nil
}

// BannerURLTx returns the event's banner artifact URL (may be empty)
// inside a transaction, for cleanup during event deletion.
func (r *EventRepo) BannerURLTx(ctx context.Context, tx *sql.Tx, eventID uint64) (string, error) {
    var banner sql.NullString
    err := tx.QueryRowContext(ctx, `SELECT banner_url FROM events WHERE id = ?`, eventID).Scan(&banner)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return "", ErrEventNotFound
        }
        return "", err
    }
    if banner.Valid {
        return banner.String, nil
    }
    return "", nil
}

// DeleteTx removes the event row itself.  All dependent rows
// (tickets, orders, seats, locks, waitlist entries) must already have
// been deleted by the caller's cascade.
func (r *EventRepo) DeleteTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrEventNotFound
    }
    return nil
}

// EventDate parses a client-supplied RFC3339 timestamp into UTC for
// storage.  Kept here so handlers share one accepted format.
func EventDate(value string) (time.Time, error) {
    t, err := time.Parse(time.RFC3339, value)
    if err != nil {
        return time.Time{}, err
    }
    return t.UTC(), nil
}
