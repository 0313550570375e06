package handler

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// The store interfaces below are the handler-side view of the repository
// layer.  Handlers receive explicit store handles at construction instead
// of reaching for shared singletons, so unit tests can wire in-memory
// implementations and integration wiring can pass the MySQL repositories.

// ScreeningStore persists screenings and their venue geometry.
type ScreeningStore interface {
	Create(ctx context.Context, s *model.Screening) error
	GetByID(ctx context.Context, id uint64) (*model.Screening, error)
	ListAll(ctx context.Context) ([]model.Screening, error)
	Update(ctx context.Context, s *model.Screening) error
	Delete(ctx context.Context, id uint64) error
}

// HoldStore persists seat holds.  CreateBatch must be all-or-nothing:
// when any requested seat is reserved or covered by a live hold it
// returns *repository.SeatUnavailableError and creates nothing.
type HoldStore interface {
	CreateBatch(ctx context.Context, userID, screeningID uint64, seats []model.SeatPosition, expiresAt time.Time) ([]model.SeatHold, error)
	Deactivate(ctx context.Context, userID uint64, holdIDs []uint64) error
	DeactivateAllForUser(ctx context.Context, userID uint64) (int64, error)
	ListActiveByUser(ctx context.Context, userID uint64) ([]model.SeatHold, error)
	ListActiveByScreening(ctx context.Context, screeningID uint64) ([]model.SeatHold, error)
}

// ReservationStore persists reservations.  Create must let the store's
// uniqueness guarantee arbitrate concurrent inserts for the same seat,
// surfacing the lost race as repository.ErrSeatAlreadyReserved.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	Delete(ctx context.Context, userID, screeningID uint64, row, seat uint32) error
	ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error)
	ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error)
	MarkPaid(ctx context.Context, userID, reservationID, expectedVersion uint64) (model.UpdateResult, error)
}

// UserStore persists the local user profiles.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint64, fullName, email string, expectedVersion uint64) (model.UpdateResult, error)
}
