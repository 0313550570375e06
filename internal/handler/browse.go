// This file defines the public browsing handlers.  These routes let
// unauthenticated users list screenings and inspect seat availability
// before deciding to sign in and hold seats.

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/clock"
	"github.com/iliyamo/cinema-ticket-system/internal/inventory"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

// BrowseHandler aggregates the stores needed for unauthenticated reads.
type BrowseHandler struct {
	Screenings   ScreeningStore
	Holds        HoldStore
	Reservations ReservationStore
	Clock        clock.Clock
}

// publicScreening is the screening shape exposed to guests.
type publicScreening struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	StartsAt    time.Time `json:"starts_at"`
	SeatRows    uint32    `json:"seat_rows"`
	SeatsPerRow uint32    `json:"seats_per_row"`
	PriceCents  uint32    `json:"price_cents"`
}

// ListScreenings handles GET /v1/screenings.  The catalog changes rarely,
// so this route sits behind the response cache.
func (h *BrowseHandler) ListScreenings(c echo.Context) error {
	screenings, err := h.Screenings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]publicScreening, 0, len(screenings))
	for _, s := range screenings {
		items = append(items, publicScreening{
			ID: s.ID, Title: s.Title, StartsAt: s.StartsAt,
			SeatRows: s.SeatRows, SeatsPerRow: s.SeatsPerRow, PriceCents: s.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetScreening handles GET /v1/screenings/:id.
func (h *BrowseHandler) GetScreening(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	s, err := h.Screenings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, publicScreening{
		ID: s.ID, Title: s.Title, StartsAt: s.StartsAt,
		SeatRows: s.SeatRows, SeatsPerRow: s.SeatsPerRow, PriceCents: s.PriceCents,
	})
}

// GetSeatMap handles GET /v1/screenings/:id/seats.  Geometry, committed
// reservations and live holds are fetched once and combined into the
// availability view; nothing is read lazily and nothing is written.  This
// response is never cached: holds expire between requests and the view
// must reflect that immediately.
func (h *BrowseHandler) GetSeatMap(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	ctx := c.Request().Context()
	screening, err := h.Screenings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reservations, err := h.Reservations.ListByScreening(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	holds, err := h.Holds.ListActiveByScreening(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load holds"})
	}
	return c.JSON(http.StatusOK, inventory.Build(screening, reservations, holds, h.Clock.Now()))
}
