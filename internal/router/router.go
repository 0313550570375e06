package router // package router wires HTTP routes to their handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-system/internal/handler"
	"github.com/iliyamo/cinema-ticket-system/internal/middleware"
)

// Handlers groups everything the route table needs.  Cache is applied
// only to the screening catalog listing; seat maps and anything behind
// authentication always hit the handlers directly.
type Handlers struct {
	Browse      *handler.BrowseHandler
	Hold        *handler.HoldHandler
	Reservation *handler.ReservationHandler
	Admin       *handler.AdminHandler
	Profile     *handler.ProfileHandler
	JWTSecret   string
	RateLimit   echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
}

// Register attaches all API routes to the Echo instance.
func Register(e *echo.Echo, h Handlers) {
	if h.RateLimit != nil {
		e.Use(h.RateLimit)
	}

	e.GET("/healthz", handler.Health)

	// Public catalog.  Listing is cacheable; per-screening seat maps
	// must reflect holds immediately so they bypass the cache.
	public := e.Group("/v1")
	var catalogMW []echo.MiddlewareFunc
	if h.Cache != nil {
		catalogMW = append(catalogMW, h.Cache)
	}
	public.GET("/screenings", h.Browse.ListScreenings, catalogMW...)
	public.GET("/screenings/:id", h.Browse.GetScreening)
	public.GET("/screenings/:id/seats", h.Browse.GetSeatMap)

	// Authenticated customer surface.
	auth := e.Group("/v1", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole("CUSTOMER", "ADMIN"))
	auth.POST("/screenings/:id/holds", h.Hold.CreateHolds)
	auth.DELETE("/holds", h.Hold.ReleaseHolds)
	auth.DELETE("/holds/all", h.Hold.ReleaseAllHolds)
	auth.GET("/my-holds", h.Hold.ListMyHolds)

	auth.POST("/reservations", h.Reservation.CreateReservation)
	auth.DELETE("/reservations/screening/:screeningId/row/:row/seat/:seat", h.Reservation.DeleteReservation)
	auth.GET("/my-reservations", h.Reservation.ListMyReservations)
	auth.POST("/reservations/:id/payment", h.Reservation.MarkPaid)

	auth.GET("/me", h.Profile.Me)
	auth.PUT("/me", h.Profile.UpdateMe)

	// Screening administration.
	admin := e.Group("/v1", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole("ADMIN"))
	admin.POST("/screenings", h.Admin.CreateScreening)
	admin.PUT("/screenings/:id", h.Admin.UpdateScreening)
	admin.DELETE("/screenings/:id", h.Admin.DeleteScreening)
}
