package repository

// Error values shared across the data access layer. These sentinels let
// handlers distinguish failure scenarios without inspecting error
// strings: ErrForbidden indicates the caller does not own the resource,
// ErrSeatAlreadyReserved signals a seat conflict regardless of whether it
// was detected by a pre-check or by a lost race at insert time, and the
// not-found sentinels cover dangling identifiers.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// ErrScreeningNotFound indicates the referenced screening does not exist.
var ErrScreeningNotFound = errors.New("screening not found")

// ErrHoldNotFound indicates a hold does not exist or is no longer active.
// Releasing an already-released hold by id reports this same error.
var ErrHoldNotFound = errors.New("hold not found")

// ErrReservationNotFound indicates a reservation does not exist or does
// not belong to the caller. Handlers translate it into HTTP 404; the two
// cases are deliberately indistinguishable so ownership cannot be probed.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrUserNotFound indicates the referenced user row does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrSeatAlreadyReserved signals that the requested seat already has a
// committed reservation. It covers both the pre-check and the duplicate
// key raised by a concurrent insert: callers cannot tell "someone already
// had it" from "someone just took it", and handlers map both to HTTP 409.
var ErrSeatAlreadyReserved = errors.New("seat already reserved")

// SeatUnavailableError rejects a hold batch. It carries every requested
// position that was reserved or covered by a live hold so the client can
// show the user exactly which seats to pick again. No holds from the
// batch survive: the whole transaction is rolled back.
type SeatUnavailableError struct {
	Seats []model.SeatPosition
}

func (e *SeatUnavailableError) Error() string {
	labels := make([]string, 0, len(e.Seats))
	for _, p := range e.Seats {
		labels = append(labels, p.Label())
	}
	return fmt.Sprintf("seats unavailable: %s", strings.Join(labels, ", "))
}
