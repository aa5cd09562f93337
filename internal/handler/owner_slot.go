package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

type slotReq struct {
    StartTime string `json:"start_time"` // HH:MM or HH:MM:SS
    EndTime   string `json:"end_time"`
}

type slotResp struct {
    ID        uint64 `json:"id"`
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
    Closed    bool   `json:"closed"`
}

func toSlotResp(s model.Slot) slotResp {
    return slotResp{
        ID:        s.ID,
        StartTime: s.StartTime.Format("15:04"),
        EndTime:   s.EndTime.Format("15:04"),
        Closed:    s.Closed,
    }
}

// parseClock accepts HH:MM or HH:MM:SS and anchors the result at the
// zero date, matching how slots come back from storage.
func parseClock(raw string) (time.Time, error) {
    raw = strings.TrimSpace(raw)
    if t, err := time.Parse("15:04:05", raw); err == nil {
        return t, nil
    }
    return time.Parse("15:04", raw)
}

// overlappingSlot returns the id of a slot whose window intersects s,
// or 0 when none does.  Service windows must not overlap: the conflict
// resolver scopes occupancy by slot id, so overlapping windows would
// let two reservations share a table at the same hour.
func (h *OwnerHandler) overlappingSlot(ctx context.Context, s model.Slot, exclude uint64) (uint64, error) {
    all, err := h.Slots.ListAll(ctx)
    if err != nil {
        return 0, err
    }
    for _, other := range all {
        if other.ID == exclude {
            continue
        }
        if s.Overlaps(other) {
            return other.ID, nil
        }
    }
    return 0, nil
}

// CreateSlot handles POST /v1/owner/slots.
func (h *OwnerHandler) CreateSlot(c echo.Context) error {
    var body slotReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    start, err := parseClock(body.StartTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be HH:MM"})
    }
    end, err := parseClock(body.EndTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be HH:MM"})
    }
    if !start.Before(end) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
    }
    ctx := c.Request().Context()
    s := model.Slot{StartTime: start, EndTime: end}
    if clash, err := h.overlappingSlot(ctx, s, 0); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    } else if clash != 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "window overlaps slot", "slot_id": clash})
    }
    if err := h.Slots.Create(ctx, &s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create slot"})
    }
    return c.JSON(http.StatusCreated, toSlotResp(s))
}

// UpdateSlot handles PUT /v1/owner/slots/:id.
func (h *OwnerHandler) UpdateSlot(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body slotReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    start, err := parseClock(body.StartTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be HH:MM"})
    }
    end, err := parseClock(body.EndTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be HH:MM"})
    }
    if !start.Before(end) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
    }
    ctx := c.Request().Context()
    existing, err := h.Slots.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    existing.StartTime = start
    existing.EndTime = end
    if clash, err := h.overlappingSlot(ctx, existing, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    } else if clash != 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "window overlaps slot", "slot_id": clash})
    }
    if err := h.Slots.Update(ctx, &existing); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, toSlotResp(existing))
}

// SetSlotClosed handles PATCH /v1/owner/slots/:id/closed.  Closing a
// slot refuses new bookings only; reservations already made stay.
func (h *OwnerHandler) SetSlotClosed(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Closed *bool `json:"closed"`
    }
    if err := c.Bind(&body); err != nil || body.Closed == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "closed is required"})
    }
    ctx := c.Request().Context()
    if _, err := h.Slots.GetByID(ctx, id); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    if err := h.Slots.SetClosed(ctx, id, *body.Closed); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    updated, err := h.Slots.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, toSlotResp(updated))
}

// ListSlots handles GET /v1/owner/slots including closed windows.
func (h *OwnerHandler) ListSlots(c echo.Context) error {
    items, err := h.Slots.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    out := make([]slotResp, 0, len(items))
    for _, s := range items {
        out = append(out, toSlotResp(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
