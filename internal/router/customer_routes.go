package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/handler"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterBooking registers the reservation endpoints under /v1.  All
// routes require a valid JWT; customers book and manage their own
// reservations, staff and owners reach the same endpoints so they can
// act on any reservation (the service enforces ownership).
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleCustomer, model.RoleStaff, model.RoleOwner),
    )
    g.POST("/reservations", h.Create)
    g.GET("/my-reservations", h.ListMine)
    g.GET("/reservations/:id", h.Get)
    g.DELETE("/reservations/:id", h.Cancel)
}
