package model

import "time"

// Reservation is the permanent claim on a seat, the unit actually sold.
// The database enforces that a (screening, row, seat) triple maps to at
// most one reservation ever; the version counter supports optimistic
// concurrency for non-seat mutations such as marking the reservation paid.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the reservation.
//  ScreeningID – screening the seat belongs to.
//  Row, Seat   – 1-based seat coordinates inside the venue grid.
//  Paid        – set by the payment collaborator's mark-paid call.
//  Version     – incremented on every update; stale writers lose.
//  CreatedAt   – creation timestamp.
type Reservation struct {
	ID          uint64    // reservations.id
	UserID      uint64    // reservations.user_id
	ScreeningID uint64    // reservations.screening_id
	Row         uint32    // reservations.row_num
	Seat        uint32    // reservations.seat_number
	Paid        bool      // reservations.paid
	Version     uint64    // reservations.version
	CreatedAt   time.Time // reservations.created_at
}

// Position returns the reservation's seat coordinates as a SeatPosition.
func (r *Reservation) Position() SeatPosition {
	return SeatPosition{Row: r.Row, Seat: r.Seat}
}

// ReservationDetail joins a reservation with the screening fields needed
// to present it to its owner.  Listings are ordered by StartsAt ascending.
type ReservationDetail struct {
	Reservation
	ScreeningTitle string    // screenings.title
	StartsAt       time.Time // screenings.starts_at
	PriceCents     uint32    // screenings.price_cents
}
