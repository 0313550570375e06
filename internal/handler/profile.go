package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
	"github.com/iliyamo/cinema-ticket-system/internal/repository"
)

// ProfileHandler exposes the authenticated user's own profile.  Profile
// edits use the optimistic version counter: the client sends back the
// version it read, and a stale version is a 409 the client resolves by
// re-reading, never a silent overwrite.
type ProfileHandler struct {
	Users UserStore
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users UserStore) *ProfileHandler {
	if users == nil {
		panic("nil store passed to NewProfileHandler")
	}
	return &ProfileHandler{Users: users}
}

func profileJSON(u *model.User) echo.Map {
	return echo.Map{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"version":   u.Version,
	}
}

// Me handles GET /v1/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, profileJSON(u))
}

// UpdateMe handles PUT /v1/me.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Version  uint64 `json:"version"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FullName == "" || body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email are required"})
	}
	ctx := c.Request().Context()
	outcome, err := h.Users.UpdateProfile(ctx, userID, body.FullName, body.Email, body.Version)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}
	if outcome == model.UpdateVersionConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, profileJSON(u))
}
