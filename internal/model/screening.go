package model

import "time"

// Screening represents a timed showing of a movie in a fixed seat grid.
// The grid (SeatRows x SeatsPerRow) is the venue geometry: it is immutable
// for the lifetime of the screening except through the administrative
// update, and every seat coordinate in the system is validated against it.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title shown at this screening.
//  SeatRows    – number of seat rows in the venue grid.
//  SeatsPerRow – number of seats in each row.
//  StartsAt    – when the screening begins (UTC).
//  PriceCents  – ticket price in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last administrative update.
type Screening struct {
	ID          uint64    // screenings.id
	Title       string    // screenings.title
	SeatRows    uint32    // screenings.seat_rows
	SeatsPerRow uint32    // screenings.seats_per_row
	StartsAt    time.Time // screenings.starts_at
	PriceCents  uint32    // screenings.price_cents
	CreatedAt   time.Time // screenings.created_at
	UpdatedAt   time.Time // screenings.updated_at
}

// TotalSeats returns the number of seat positions in the venue grid.
func (s *Screening) TotalSeats() uint32 {
	return s.SeatRows * s.SeatsPerRow
}

// ContainsSeat reports whether the given position lies inside the venue
// geometry.  Rows and seats are 1-based, so row 0 or a row beyond
// SeatRows is out of bounds.
func (s *Screening) ContainsSeat(p SeatPosition) bool {
	return p.Row >= 1 && p.Row <= s.SeatRows && p.Seat >= 1 && p.Seat <= s.SeatsPerRow
}
