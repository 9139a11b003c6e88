package utils

import (
    "crypto/rand"
    "fmt"
    "time"
)

// ticketCodeAlphabet is the 32-symbol set used for short ticket
// codes.  Visually ambiguous characters (0/O, 1/I) are excluded so
// the code survives being read over the phone or scribbled on paper.
const ticketCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewTicketCode returns a 6-character human-friendly ticket code
// drawn from ticketCodeAlphabet using crypto/rand.  The alphabet
// length divides 256 evenly, so the modulo below introduces no bias.
func NewTicketCode() (string, error) {
    buf := make([]byte, 6)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    for i := range buf {
        buf[i] = ticketCodeAlphabet[int(buf[i])%len(ticketCodeAlphabet)]
    }
    return string(buf), nil
}

// NewQRCodeData builds the globally unique QR payload for a ticket.
// The high-resolution timestamp makes payloads unique per issuance
// and hard to guess even when order and seat IDs are sequential.
func NewQRCodeData(orderID, seatID uint64) string {
    return fmt.Sprintf("TICKET-%d-%d-%d", orderID, seatID, time.Now().UnixNano())
}
