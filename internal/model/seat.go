package model

import "time"

// Seat describes a single seat in an event's layout.  Seats are
// uniquely identified by their event, row label and seat number.
// The is_booked flag is set only by the payment approval
// transition – never by locking or order creation.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – type of seat (VIP, Premium, Regular).
//  Price      – price in rupees for this seat.
//  IsBooked   – whether the seat has been sold (approved order).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
    ID         uint64    // seats.id
    EventID    uint64    // seats.event_id
    RowLabel   string    // seats.row_label
    SeatNumber uint32    // seats.seat_number
    SeatType   string    // seats.seat_type
    Price      uint32    // seats.price
    IsBooked   bool      // seats.is_booked
    CreatedAt  time.Time // seats.created_at
    UpdatedAt  time.Time // seats.updated_at
}
