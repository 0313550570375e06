package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/clock"
	"github.com/iliyamo/cinema-ticket-system/internal/model"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

// HoldHandler implements the hold operations: customers claim seats for a
// limited window before committing to a purchase.  All methods assume the
// JWT middleware has already placed the caller's user_id in the context.
type HoldHandler struct {
	Screenings ScreeningStore // geometry lookups and existence checks
	Holds      HoldStore      // hold persistence
	Clock      clock.Clock    // source of "now" for expiry computation
	TTL        time.Duration  // hold time-to-live, expiresAt = now + TTL
}

// NewHoldHandler constructs a HoldHandler.  All dependencies must be
// non-nil and the TTL positive.
func NewHoldHandler(screenings ScreeningStore, holds HoldStore, clk clock.Clock, ttl time.Duration) *HoldHandler {
	if screenings == nil || holds == nil || clk == nil || ttl <= 0 {
		panic("invalid dependency passed to NewHoldHandler")
	}
	return &HoldHandler{Screenings: screenings, Holds: holds, Clock: clk, TTL: ttl}
}

// holdView is the JSON shape of a hold in responses.
type holdView struct {
	HoldID      uint64    `json:"hold_id"`
	ScreeningID uint64    `json:"screening_id"`
	Row         uint32    `json:"row"`
	Seat        uint32    `json:"seat"`
	Label       string    `json:"label"`
	HeldAt      time.Time `json:"held_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toHoldView(h model.SeatHold) holdView {
	return holdView{
		HoldID:      h.ID,
		ScreeningID: h.ScreeningID,
		Row:         h.Row,
		Seat:        h.Seat,
		Label:       h.Position().Label(),
		HeldAt:      h.HeldAt,
		ExpiresAt:   h.ExpiresAt,
	}
}

// CreateHolds handles POST /v1/screenings/:id/holds.  The body carries a
// "seats" array of {row, seat} pairs.  The batch is all-or-nothing: every
// position must lie inside the venue geometry and be free of reservations
// and live holds, otherwise nothing is created.  Retrying a hold the
// caller already owns conflicts like anyone else's duplicate would;
// clients should consult GET /v1/my-holds instead of retrying blindly.
func (h *HoldHandler) CreateHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	screeningID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	ctx := c.Request().Context()
	screening, err := h.Screenings.GetByID(ctx, screeningID)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var body struct {
		Seats []model.SeatPosition `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	// Deduplicate exact repeats within the request, then validate every
	// position against the venue geometry before touching the store.
	seen := make(map[model.SeatPosition]struct{}, len(body.Seats))
	unique := make([]model.SeatPosition, 0, len(body.Seats))
	var invalid []model.SeatPosition
	for _, p := range body.Seats {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if !screening.ContainsSeat(p) {
			invalid = append(invalid, p)
			continue
		}
		unique = append(unique, p)
	}
	if len(invalid) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "seat out of venue bounds",
			"invalid": invalid,
		})
	}

	expiresAt := h.Clock.Now().Add(h.TTL)
	created, err := h.Holds.CreateBatch(ctx, userID, screeningID, unique, expiresAt)
	if err != nil {
		var unavailable *repository.SeatUnavailableError
		if errors.As(err, &unavailable) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":       "some seats are unavailable",
				"unavailable": unavailable.Seats,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create holds"})
	}

	holdIDs := make([]uint64, 0, len(created))
	for _, hold := range created {
		holdIDs = append(holdIDs, hold.ID)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_ids":   holdIDs,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// ReleaseHolds handles DELETE /v1/holds.  The body names the hold ids to
// release; each must exist, still be active and belong to the caller.  A
// missing or already-released hold yields 404, someone else's hold 403,
// and in both cases nothing is released.
func (h *HoldHandler) ReleaseHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		HoldIDs []uint64 `json:"hold_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.HoldIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_ids is required"})
	}
	if err := h.Holds.Deactivate(c.Request().Context(), userID, body.HoldIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrHoldNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ReleaseAllHolds handles DELETE /v1/holds/all.  It releases every active
// hold the caller owns and never fails: releasing nothing is a no-op.
func (h *HoldHandler) ReleaseAllHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, err := h.Holds.DeactivateAllForUser(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyHolds handles GET /v1/my-holds.  Only active, unexpired holds are
// returned; a hold past its expiry is absent even before the reaper has
// deactivated it.
func (h *HoldHandler) ListMyHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	holds, err := h.Holds.ListActiveByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load holds"})
	}
	now := h.Clock.Now()
	items := make([]holdView, 0, len(holds))
	for _, hold := range holds {
		if !hold.Live(now) {
			continue
		}
		items = append(items, toHoldView(hold))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
