package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// BookingHandler exposes the customer-facing reservation endpoints.
// JWT authentication and role validation are performed by middleware;
// the handler translates HTTP to booking service calls and service
// sentinels back to status codes.
type BookingHandler struct {
    Booking *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
    if b == nil {
        panic("nil booking service passed to NewBookingHandler")
    }
    return &BookingHandler{Booking: b}
}

const dateLayout = "2006-01-02"

// ----- DTOs -----

type createReservationReq struct {
    Date   string `json:"date"` // YYYY-MM-DD
    SlotID uint64 `json:"slot_id"`
    Guests int    `json:"guests"`
    Notes  string `json:"notes"`
}

type assignmentResp struct {
    TableID       uint64 `json:"table_id"`
    SeatsAssigned uint32 `json:"seats_assigned"`
    MergeGroup    string `json:"merge_group"`
}

type reservationResp struct {
    ID         uint64           `json:"id"`
    CustomerID uint64           `json:"customer_id"`
    Date       string           `json:"date"`
    SlotID     uint64           `json:"slot_id"`
    Guests     int              `json:"guests"`
    Notes      string           `json:"notes,omitempty"`
    Status     string           `json:"status"`
    CreatedAt  time.Time        `json:"created_at"`
    Tables     []assignmentResp `json:"tables"`
}

func toReservationResp(r model.Reservation) reservationResp {
    resp := reservationResp{
        ID:         r.ID,
        CustomerID: r.CustomerID,
        Date:       r.Date.Format(dateLayout),
        SlotID:     r.SlotID,
        Guests:     r.Guests,
        Notes:      r.Notes,
        Status:     string(r.Status),
        CreatedAt:  r.CreatedAt,
        Tables:     make([]assignmentResp, 0, len(r.Assignments)),
    }
    for _, a := range r.Assignments {
        resp.Tables = append(resp.Tables, assignmentResp{
            TableID:       a.TableID,
            SeatsAssigned: a.SeatsAssigned,
            MergeGroup:    a.MergeGroup,
        })
    }
    return resp
}

// bookingError maps service sentinels to HTTP responses.
func bookingError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrSlotClosed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot is closed"})
    case errors.Is(err, service.ErrNoTablesAvailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no tables available for this slot"})
    case errors.Is(err, service.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
    case errors.Is(err, service.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation changed, retry"})
    case errors.Is(err, service.ErrUnauthorized):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

// Create handles POST /v1/reservations.
func (h *BookingHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    res, err := h.Booking.CreateReservation(c.Request().Context(), userID, date, req.SlotID, req.Guests, req.Notes)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusCreated, toReservationResp(res))
}

// ListMine handles GET /v1/my-reservations.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Booking.ListCustomerReservations(c.Request().Context(), userID)
    if err != nil {
        return bookingError(c, err)
    }
    out := make([]reservationResp, 0, len(items))
    for _, r := range items {
        out = append(out, toReservationResp(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/reservations/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    res, err := h.Booking.GetReservation(c.Request().Context(), id, userID)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResp(res))
}

// Cancel handles DELETE /v1/reservations/:id.  The reservation is not
// removed; it moves to CANCELED and its tables are released.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    if err := h.Booking.CancelReservation(c.Request().Context(), id, userID); err != nil {
        return bookingError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
