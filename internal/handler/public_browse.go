package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// PublicHandler serves the unauthenticated browse endpoints: the open
// service windows and the availability probe customers use before
// committing to a booking.
type PublicHandler struct {
    Booking *service.BookingService
}

func NewPublicHandler(b *service.BookingService) *PublicHandler {
    if b == nil {
        panic("nil booking service passed to NewPublicHandler")
    }
    return &PublicHandler{Booking: b}
}

// ListSlots handles GET /v1/slots and returns the open service windows.
func (h *PublicHandler) ListSlots(c echo.Context) error {
    slots, err := h.Booking.ListOpenSlots(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    out := make([]slotResp, 0, len(slots))
    for _, s := range slots {
        out = append(out, toSlotResp(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CheckAvailability handles GET /v1/availability?date=YYYY-MM-DD&slot_id=N&guests=M.
// The answer is a snapshot, not a hold: the combination shown may be
// gone by the time the booking request arrives.
func (h *PublicHandler) CheckAvailability(c echo.Context) error {
    rawDate := strings.TrimSpace(c.QueryParam("date"))
    date, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    slotID, err := strconv.ParseUint(c.QueryParam("slot_id"), 10, 64)
    if err != nil || slotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_id"})
    }
    guests, err := strconv.Atoi(c.QueryParam("guests"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guests"})
    }

    combo, err := h.Booking.CheckAvailability(c.Request().Context(), date, slotID, guests)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrSlotClosed):
            return c.JSON(http.StatusOK, echo.Map{"available": false, "reason": "slot is closed"})
        case errors.Is(err, service.ErrNoTablesAvailable):
            return c.JSON(http.StatusOK, echo.Map{"available": false, "reason": "no tables available"})
        default:
            return bookingError(c, err)
        }
    }
    type comboPart struct {
        TableID uint64 `json:"table_id"`
        Number  uint32 `json:"number"`
        Seats   uint32 `json:"seats"`
    }
    tables := make([]comboPart, 0, len(combo))
    for _, t := range combo {
        tables = append(tables, comboPart{TableID: t.ID, Number: t.Number, Seats: t.Seats})
    }
    return c.JSON(http.StatusOK, echo.Map{"available": true, "tables": tables})
}
