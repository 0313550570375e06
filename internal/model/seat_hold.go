package model

import "time"

// SeatHold is a time-boxed claim on one seat of a screening.  A hold keeps
// a seat away from other customers while its owner moves through checkout.
// Holds are deactivated rather than deleted: release, the expiry sweep and
// screening deletion all clear Active while the row remains as history.
// At most one hold per (screening, row, seat) may be active at a time.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the hold.
//  ScreeningID – screening the seat belongs to.
//  Row, Seat   – 1-based seat coordinates inside the venue grid.
//  Active      – false once released, confirmed or expired by the sweep.
//  HeldAt      – when the hold was created.
//  ExpiresAt   – HeldAt plus the configured TTL; past this instant the
//                hold is ignored everywhere even if Active is still true.
type SeatHold struct {
	ID          uint64    // seat_holds.id
	UserID      uint64    // seat_holds.user_id
	ScreeningID uint64    // seat_holds.screening_id
	Row         uint32    // seat_holds.row_num
	Seat        uint32    // seat_holds.seat_number
	Active      bool      // seat_holds.active
	HeldAt      time.Time // seat_holds.held_at
	ExpiresAt   time.Time // seat_holds.expires_at
}

// Position returns the hold's seat coordinates as a SeatPosition.
func (h *SeatHold) Position() SeatPosition {
	return SeatPosition{Row: h.Row, Seat: h.Seat}
}

// Live reports whether the hold still blocks the seat at the given
// instant.  The active flag alone is never trusted: a hold past its
// expiry is dead even before the reaper has swept it.
func (h *SeatHold) Live(now time.Time) bool {
	return h.Active && h.ExpiresAt.After(now)
}
