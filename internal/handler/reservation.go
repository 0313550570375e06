package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/clock"
	"github.com/iliyamo/cinema-ticket-system/internal/model"
	"github.com/iliyamo/cinema-ticket-system/internal/queue"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

// EventPublisher delivers domain events to the message broker.  Publish
// failures must never fail the request that produced the event.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// ReservationHandler implements the reservation ledger operations: the
// permanent, sold seat claims.  A reservation does not require a prior
// hold, and creating one does not release a hold the caller may have on
// the same seat; the hold either gets released explicitly or ages out.
type ReservationHandler struct {
	Screenings   ScreeningStore
	Reservations ReservationStore
	Clock        clock.Clock
	Publisher    EventPublisher // optional; nil disables events
}

// NewReservationHandler constructs a ReservationHandler.  The publisher
// may be nil when no broker is configured.
func NewReservationHandler(screenings ScreeningStore, reservations ReservationStore, clk clock.Clock, pub EventPublisher) *ReservationHandler {
	if screenings == nil || reservations == nil || clk == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Screenings: screenings, Reservations: reservations, Clock: clk, Publisher: pub}
}

// reservationView is the JSON shape of a reservation in responses.
type reservationView struct {
	ReservationID uint64    `json:"reservation_id"`
	ScreeningID   uint64    `json:"screening_id"`
	Row           uint32    `json:"row"`
	Seat          uint32    `json:"seat"`
	Label         string    `json:"label"`
	Paid          bool      `json:"paid"`
	Version       uint64    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateReservation handles POST /v1/reservations.  The body carries
// screening_id, row and seat.  The seat is validated against the venue
// geometry and pre-checked against existing reservations, but the store's
// uniqueness constraint is what actually decides: a concurrent writer who
// slips between the check and the insert surfaces as the same 409 the
// pre-check would have produced.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ScreeningID uint64 `json:"screening_id"`
		Row         uint32 `json:"row"`
		Seat        uint32 `json:"seat"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScreeningID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screening_id is required"})
	}
	ctx := c.Request().Context()
	screening, err := h.Screenings.GetByID(ctx, body.ScreeningID)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pos := model.SeatPosition{Row: body.Row, Seat: body.Seat}
	if !screening.ContainsSeat(pos) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat out of venue bounds"})
	}

	res := &model.Reservation{
		UserID:      userID,
		ScreeningID: body.ScreeningID,
		Row:         body.Row,
		Seat:        body.Seat,
	}
	if err := h.Reservations.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrSeatAlreadyReserved) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already reserved"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}

	if h.Publisher != nil {
		ev := queue.ReservationConfirmedEvent{
			ReservationID: res.ID,
			UserID:        userID,
			ScreeningID:   screening.ID,
			MovieTitle:    screening.Title,
			StartsAt:      screening.StartsAt.Format(time.RFC3339),
			SeatLabel:     pos.Label(),
			PriceCents:    screening.PriceCents,
			ConfirmedAt:   h.Clock.Now().Format(time.RFC3339),
		}
		// Best effort: the reservation is committed either way.
		if err := h.Publisher.PublishReservationConfirmed(ctx, ev); err != nil {
			log.Printf("reservation: publish confirmed event failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, reservationView{
		ReservationID: res.ID,
		ScreeningID:   res.ScreeningID,
		Row:           res.Row,
		Seat:          res.Seat,
		Label:         pos.Label(),
		Paid:          res.Paid,
		Version:       res.Version,
		CreatedAt:     res.CreatedAt,
	})
}

// DeleteReservation handles
// DELETE /v1/reservations/screening/:screeningId/row/:row/seat/:seat.
// Only the owner may cancel; a reservation that does not exist and one
// owned by someone else are both 404.  The freed seat becomes an ordinary
// available seat again.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	screeningID, ok := pathID(c, "screeningId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	row, okRow := pathID(c, "row")
	seat, okSeat := pathID(c, "seat")
	if !okRow || !okSeat {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat position"})
	}
	err = h.Reservations.Delete(c.Request().Context(), userID, screeningID, uint32(row), uint32(seat))
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete reservation"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyReservations handles GET /v1/my-reservations.  Results are
// ordered by screening start time ascending.
func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	type item struct {
		reservationView
		Title      string    `json:"title"`
		StartsAt   time.Time `json:"starts_at"`
		PriceCents uint32    `json:"price_cents"`
	}
	items := make([]item, 0, len(details))
	for _, d := range details {
		items = append(items, item{
			reservationView: reservationView{
				ReservationID: d.ID,
				ScreeningID:   d.ScreeningID,
				Row:           d.Row,
				Seat:          d.Seat,
				Label:         d.Position().Label(),
				Paid:          d.Paid,
				Version:       d.Version,
				CreatedAt:     d.CreatedAt,
			},
			Title:      d.ScreeningTitle,
			StartsAt:   d.StartsAt,
			PriceCents: d.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkPaid handles POST /v1/reservations/:id/payment, the opaque call the
// payment collaborator makes once a charge settles.  The body carries the
// version the caller read; a stale version is reported as a 409 so the
// caller re-reads and retries, it is not an internal error.
func (h *ReservationHandler) MarkPaid(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Version uint64 `json:"version"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	outcome, err := h.Reservations.MarkPaid(c.Request().Context(), userID, reservationID, body.Version)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark reservation paid"})
	}
	if outcome == model.UpdateVersionConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": reservationID,
		"paid":           true,
		"version":        body.Version + 1,
	})
}
