// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketConfirmedEvent is published when a pending order is approved and
// its tickets become valid.  It contains enough information for downstream
// consumers to notify the buyer or feed analytics without querying the
// primary database.  Delivery is best effort: approval never rolls back
// because a publish failed.
type TicketConfirmedEvent struct {
    OrderID     uint64   `json:"order_id"`
    UserID      uint64   `json:"user_id"`
    BuyerEmail  string   `json:"buyer_email"`
    BuyerName   string   `json:"buyer_name"`
    EventID     uint64   `json:"event_id"`
    EventTitle  string   `json:"event_title"`
    Venue       string   `json:"venue"`
    EventDate   string   `json:"event_date"`
    TicketIDs   []uint64 `json:"ticket_ids"`
    TotalAmount uint32   `json:"total_amount"`
    ConfirmedAt string   `json:"confirmed_at"`
}
