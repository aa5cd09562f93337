package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// StaffHandler drives reservations through their lifecycle at the
// door: confirm, check in, complete, mark as no-show.  The routes are
// restricted to STAFF and OWNER by role middleware.
type StaffHandler struct {
    Booking *service.BookingService
}

func NewStaffHandler(b *service.BookingService) *StaffHandler {
    if b == nil {
        panic("nil booking service passed to NewStaffHandler")
    }
    return &StaffHandler{Booking: b}
}

type advanceReq struct {
    Status string `json:"status"` // CONFIRMED | CHECKED_IN | COMPLETED | NO_SHOW | CANCELED
}

// Advance handles POST /v1/staff/reservations/:id/status.
func (h *StaffHandler) Advance(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req advanceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    target := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
    if target == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }
    if err := h.Booking.AdvanceReservation(c.Request().Context(), id, target); err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(target)})
}

// ListByDate handles GET /v1/staff/reservations?date=YYYY-MM-DD.  The
// list covers every customer, ordered by slot start time.
func (h *StaffHandler) ListByDate(c echo.Context) error {
    raw := strings.TrimSpace(c.QueryParam("date"))
    if raw == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter is required"})
    }
    date, err := time.ParseInLocation(dateLayout, raw, time.UTC)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    items, err := h.Booking.ListReservationsForDate(c.Request().Context(), date)
    if err != nil {
        return bookingError(c, err)
    }
    out := make([]reservationResp, 0, len(items))
    for _, r := range items {
        out = append(out, toReservationResp(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"date": raw, "items": out})
}
