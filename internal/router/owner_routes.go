package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/handler"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterOwner registers OWNER-scoped administration endpoints under
// /v1/owner.  All routes require a valid JWT and the OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
    g := e.Group(
        "/v1/owner",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleOwner),
    )

    // ---- Tables ----
    g.GET("/tables", o.ListTables)
    g.POST("/tables", o.CreateTable)
    g.PUT("/tables/:id", o.UpdateTable)
    g.PATCH("/tables/:id", o.UpdateTable)
    g.PATCH("/tables/:id/availability", o.SetTableAvailability)

    // ---- Slots ----
    g.GET("/slots", o.ListSlots)
    g.POST("/slots", o.CreateSlot)
    g.PUT("/slots/:id", o.UpdateSlot)
    g.PATCH("/slots/:id", o.UpdateSlot)
    g.PATCH("/slots/:id/closed", o.SetSlotClosed)
}

// RegisterStaff registers the door-side reservation endpoints under
// /v1/staff.  STAFF and OWNER may list a day's reservations and drive
// status transitions.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
    g := e.Group(
        "/v1/staff",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleStaff, model.RoleOwner),
    )
    g.GET("/reservations", h.ListByDate)
    g.POST("/reservations/:id/status", h.Advance)
}
