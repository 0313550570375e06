// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a seat reservation commits.
// It carries enough context for the notification collaborator to compose
// an email without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	ScreeningID   uint64 `json:"screening_id"`
	MovieTitle    string `json:"movie_title"`
	StartsAt      string `json:"starts_at"`
	SeatLabel     string `json:"seat"`
	PriceCents    uint32 `json:"price_cents"`
	ConfirmedAt   string `json:"confirmed_at"`
}
