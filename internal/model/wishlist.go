package model

import "time"

// WishlistItem marks an event a user saved to revisit later.  Unlike
// a waitlist entry it carries no status; it is a bookmark.  A user
// can wishlist an event at most once.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – saved event.
//  UserID    – owner of the wishlist.
//  CreatedAt – when the event was saved.
type WishlistItem struct {
	ID        uint64    // wishlists.id
	EventID   uint64    // wishlists.event_id
	UserID    uint64    // wishlists.user_id
	CreatedAt time.Time // wishlists.created_at
}
