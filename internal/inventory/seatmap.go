// Package inventory computes the seat availability view for a screening.
// It is a pure read-side projection: geometry, reservations and holds are
// fetched once by the caller and passed in, and nothing here touches the
// store or mutates any state.
package inventory

import (
	"time"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// Seat is one entry of the seat map.
type Seat struct {
	Row    uint32           `json:"row"`
	Seat   uint32           `json:"seat"`
	Label  string           `json:"label"`
	Status model.SeatStatus `json:"status"`
}

// SeatMap is the full availability view for a screening at one instant.
type SeatMap struct {
	ScreeningID    uint64    `json:"screening_id"`
	Title          string    `json:"title"`
	StartsAt       time.Time `json:"starts_at"`
	SeatRows       uint32    `json:"seat_rows"`
	SeatsPerRow    uint32    `json:"seats_per_row"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	Seats          []Seat    `json:"seats"`
}

// Build enumerates every position of the screening's venue grid and
// derives its status.  A reservation wins over everything; otherwise a
// hold marks the seat HELD only while it is both active and unexpired at
// now.  The active flag alone is never trusted, so a stale hold the
// reaper has not swept yet already reads as AVAILABLE.
func Build(s *model.Screening, reservations []model.Reservation, holds []model.SeatHold, now time.Time) SeatMap {
	reserved := make(map[model.SeatPosition]bool, len(reservations))
	for i := range reservations {
		reserved[reservations[i].Position()] = true
	}
	held := make(map[model.SeatPosition]bool, len(holds))
	for i := range holds {
		if holds[i].Live(now) {
			held[holds[i].Position()] = true
		}
	}

	out := SeatMap{
		ScreeningID: s.ID,
		Title:       s.Title,
		StartsAt:    s.StartsAt,
		SeatRows:    s.SeatRows,
		SeatsPerRow: s.SeatsPerRow,
		TotalSeats:  s.TotalSeats(),
		Seats:       make([]Seat, 0, s.TotalSeats()),
	}
	for row := uint32(1); row <= s.SeatRows; row++ {
		for seat := uint32(1); seat <= s.SeatsPerRow; seat++ {
			pos := model.SeatPosition{Row: row, Seat: seat}
			status := model.SeatAvailable
			switch {
			case reserved[pos]:
				status = model.SeatReserved
			case held[pos]:
				status = model.SeatHeld
			default:
				out.AvailableSeats++
			}
			out.Seats = append(out.Seats, Seat{Row: row, Seat: seat, Label: pos.Label(), Status: status})
		}
	}
	return out
}
