package model

import "time"

// SeatLock represents a short-lived advisory hold on a seat while a
// buyer completes checkout.  At most one lock row exists per seat
// (seat_id is unique).  Expiry is passive: a row whose ExpiresAt is
// in the past is treated as absent by every reader and may be
// overwritten by the next lock attempt.
//
// Fields:
//  SeatID    – seat being locked (unique key).
//  UserID    – user who holds the lock.
//  ExpiresAt – when the lock expires.
//  CreatedAt – when the lock was created.
type SeatLock struct {
    SeatID    uint64    // seat_locks.seat_id
    UserID    uint64    // seat_locks.user_id
    ExpiresAt time.Time // seat_locks.expires_at
    CreatedAt time.Time // seat_locks.created_at
}
