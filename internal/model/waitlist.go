package model

import "time"

// WaitlistEntry records a user's interest in an event whose seats
// are sold out.  A user may join an event's waitlist at most once;
// the (event_id, user_id) pair is unique.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the user is waiting for.
//  UserID    – user on the waitlist.
//  Status    – entry status (currently always "pending").
//  CreatedAt – when the user joined.
type WaitlistEntry struct {
    ID        uint64    // waitlists.id
    EventID   uint64    // waitlists.event_id
    UserID    uint64    // waitlists.user_id
    Status    string    // waitlists.status
    CreatedAt time.Time // waitlists.created_at
}
