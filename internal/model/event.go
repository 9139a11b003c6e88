package model

import "time"

// Event represents a timed event for which seats can be booked.
// Every event belongs to exactly one organizer.  The seat layout
// for an event is published in bulk after creation and seats are
// never deleted except together with the owning event.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user (role organizer) who owns this event.
//  Title       – event title shown to buyers.
//  Venue       – venue name or address.
//  EventDate   – when the event takes place.
//  BannerURL   – optional banner artifact URL (stored externally).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64    // events.id
    OrganizerID uint64    // events.organizer_id
    Title       string    // events.title
    Venue       string    // events.venue
    EventDate   time.Time // events.event_date
    BannerURL   *string   // events.banner_url (nullable)
    CreatedAt   time.Time // events.created_at
    UpdatedAt   time.Time // events.updated_at
}
