// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrSeatUnavailable signals that a lock or
// booking attempt lost a race against another buyer.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when an event lookup matches no row.
var ErrEventNotFound = errors.New("event not found")

// ErrOrderNotFound is returned when an order lookup matches no row.
// Because rejection deletes orders outright, a repeated reject (or an
// approve after a reject) surfaces as this error and handlers treat
// it as a benign already-processed outcome.
var ErrOrderNotFound = errors.New("order not found")

// ErrSeatsNotFound is returned by seat lookups when a requested seat
// ID does not resolve to a seat of the event (stale or garbage IDs,
// or a seat of a different event).
var ErrSeatsNotFound = errors.New("one or more seats not found")

// ErrSeatUnavailable is returned when a single seat cannot be locked
// because it is already booked or held by a different user whose
// lock has not yet expired.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrSeatsUnavailable is returned while classifying a booking attempt
// when any requested seat is confirmed for another order or is
// mid-checkout by a different user. The attempt rolls back and the
// system is left exactly as it was before the call.
var ErrSeatsUnavailable = errors.New("one or more seats are already booked or reserved")

// ErrAlreadyProcessed is returned when a terminal transition (approve,
// check-in) is re-applied to a record that has already left the
// pending state. Callers treat it as an idempotent no-op, not a
// hard failure.
var ErrAlreadyProcessed = errors.New("already processed")

// ErrDuplicateTicketCode is returned when a batch ticket insert
// violates the unique constraint on tickets.ticket_code. Callers
// regenerate the colliding codes and retry a bounded number of times.
var ErrDuplicateTicketCode = errors.New("duplicate ticket code")

// ErrAlreadyOnWaitlist is returned when a user attempts to join the
// same event's waitlist twice.
var ErrAlreadyOnWaitlist = errors.New("already on waitlist")

// ErrAlreadyReviewed is returned when a user submits a second review
// for the same event.
var ErrAlreadyReviewed = errors.New("event already reviewed")

// ErrAlreadyWishlisted is returned when a user adds the same event to
// their wishlist twice.
var ErrAlreadyWishlisted = errors.New("event already in wishlist")
