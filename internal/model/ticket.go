package model

import "time"

// Ticket is a seat-specific redeemable unit tied to an order.  One
// ticket exists per (order, seat).  Its validity is gated by the
// owning order's payment_status; there is no ticket-level payment
// flag.  Check-in is single-use and enforced by a conditional
// update on check_in_status.
//
// Fields:
//  ID            – primary key identifier.
//  OrderID       – order this ticket was issued under.
//  UserID        – buyer the ticket belongs to.
//  EventID       – event the ticket admits to.
//  SeatID        – seat the ticket covers.
//  QRCodeData    – globally unique QR payload scanned at the door.
//  TicketCode    – 6-character human-friendly lookup code.
//  CheckInStatus – pending or checked_in.
//  CheckedInAt   – when the ticket was consumed (nullable).
//  CreatedAt     – creation timestamp.
type Ticket struct {
    ID            uint64     // tickets.id
    OrderID       uint64     // tickets.order_id
    UserID        uint64     // tickets.user_id
    EventID       uint64     // tickets.event_id
    SeatID        uint64     // tickets.seat_id
    QRCodeData    string     // tickets.qr_code_data
    TicketCode    string     // tickets.ticket_code
    CheckInStatus string     // tickets.check_in_status
    CheckedInAt   *time.Time // tickets.checked_in_at (nullable)
    CreatedAt     time.Time  // tickets.created_at
}
