package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

// AdminHandler implements the administrative screening CRUD.  Routes
// using it sit behind RequireRole("ADMIN").
type AdminHandler struct {
	Screenings ScreeningStore
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(screenings ScreeningStore) *AdminHandler {
	if screenings == nil {
		panic("nil store passed to NewAdminHandler")
	}
	return &AdminHandler{Screenings: screenings}
}

type screeningBody struct {
	Title       string    `json:"title"`
	SeatRows    uint32    `json:"seat_rows"`
	SeatsPerRow uint32    `json:"seats_per_row"`
	StartsAt    time.Time `json:"starts_at"`
	PriceCents  uint32    `json:"price_cents"`
}

func (b *screeningBody) validate() string {
	switch {
	case b.Title == "":
		return "title is required"
	case b.SeatRows == 0 || b.SeatsPerRow == 0:
		return "seat grid must have at least one row and one seat per row"
	case b.StartsAt.IsZero():
		return "starts_at is required"
	case b.PriceCents == 0:
		return "price_cents is required"
	}
	return ""
}

// CreateScreening handles POST /v1/screenings.
func (h *AdminHandler) CreateScreening(c echo.Context) error {
	var body screeningBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s := &model.Screening{
		Title:       body.Title,
		SeatRows:    body.SeatRows,
		SeatsPerRow: body.SeatsPerRow,
		StartsAt:    body.StartsAt.UTC(),
		PriceCents:  body.PriceCents,
	}
	if err := h.Screenings.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create screening"})
	}
	return c.JSON(http.StatusCreated, publicScreening{
		ID: s.ID, Title: s.Title, StartsAt: s.StartsAt,
		SeatRows: s.SeatRows, SeatsPerRow: s.SeatsPerRow, PriceCents: s.PriceCents,
	})
}

// UpdateScreening handles PUT /v1/screenings/:id, the administrative edit
// that is the only mutation a screening allows after creation.
func (h *AdminHandler) UpdateScreening(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	var body screeningBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s := &model.Screening{
		ID:          id,
		Title:       body.Title,
		SeatRows:    body.SeatRows,
		SeatsPerRow: body.SeatsPerRow,
		StartsAt:    body.StartsAt.UTC(),
		PriceCents:  body.PriceCents,
	}
	if err := h.Screenings.Update(c.Request().Context(), s); err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update screening"})
	}
	return c.JSON(http.StatusOK, publicScreening{
		ID: s.ID, Title: s.Title, StartsAt: s.StartsAt,
		SeatRows: s.SeatRows, SeatsPerRow: s.SeatsPerRow, PriceCents: s.PriceCents,
	})
}

// DeleteScreening handles DELETE /v1/screenings/:id.  The delete cascades
// to the screening's holds and reservations.
func (h *AdminHandler) DeleteScreening(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	if err := h.Screenings.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete screening"})
	}
	return c.NoContent(http.StatusNoContent)
}
