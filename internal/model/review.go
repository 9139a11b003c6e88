package model

import "time"

// Review is a star rating with an optional comment left on an event
// by a buyer whose order for that event was approved.  A user may
// review an event at most once; the (event_id, user_id) pair is
// unique.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event being reviewed.
//  UserID    – reviewer.
//  Rating    – stars, 1 through 5.
//  Comment   – free-text comment, may be empty.
//  CreatedAt – when the review was submitted.
type Review struct {
	ID        uint64    // reviews.id
	EventID   uint64    // reviews.event_id
	UserID    uint64    // reviews.user_id
	Rating    uint8     // reviews.rating
	Comment   string    // reviews.comment
	CreatedAt time.Time // reviews.created_at
}
