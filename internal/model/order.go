package model

import "time"

// Order records a purchase attempt covering one or more seats for
// one event by one user.  Payment is manual (UPI screenshot), so an
// order is created in the pending state and either approved
// (completed) or rejected.  Rejection is destructive: the order and
// its tickets are deleted rather than archived, so "rejected" has no
// resting state in the database.
//
// Fields:
//  ID                   – primary key identifier.
//  UserID               – buyer who created the order.
//  EventID              – event the seats belong to.
//  TotalAmount          – sum of the seat prices at lock time, in rupees.
//  PaymentStatus        – pending or completed.
//  PaymentMethod        – always "upi" in the current flow.
//  PaymentScreenshotURL – proof-of-payment artifact URL (nullable).
//  CreatedAt            – creation timestamp.
//  UpdatedAt            – last update timestamp.
type Order struct {
    ID                   uint64    // orders.id
    UserID               uint64    // orders.user_id
    EventID              uint64    // orders.event_id
    TotalAmount          uint32    // orders.total_amount
    PaymentStatus        string    // orders.payment_status
    PaymentMethod        string    // orders.payment_method
    PaymentScreenshotURL *string   // orders.payment_screenshot_url (nullable)
    CreatedAt            time.Time // orders.created_at
    UpdatedAt            time.Time // orders.updated_at
}
