package handler

import (
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// OwnerHandler bundles the registries the owner administers.
type OwnerHandler struct {
    Tables *repository.TableRepo
    Slots  *repository.SlotRepo
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any
// dependency is nil.
func NewOwnerHandler(tables *repository.TableRepo, slots *repository.SlotRepo) *OwnerHandler {
    if tables == nil || slots == nil {
        panic("nil repository passed to NewOwnerHandler")
    }
    return &OwnerHandler{Tables: tables, Slots: slots}
}

type tableReq struct {
    Number   uint32 `json:"number"`
    Seats    uint32 `json:"seats"`
    Joinable bool   `json:"joinable"`
    Location string `json:"location"`
}

type tableResp struct {
    ID        uint64    `json:"id"`
    Number    uint32    `json:"number"`
    Seats     uint32    `json:"seats"`
    Joinable  bool      `json:"joinable"`
    Available bool      `json:"available"`
    Location  string    `json:"location,omitempty"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toTableResp(t model.Table) tableResp {
    return tableResp{
        ID:        t.ID,
        Number:    t.Number,
        Seats:     t.Seats,
        Joinable:  t.Joinable,
        Available: t.Available,
        Location:  t.Location,
        CreatedAt: t.CreatedAt,
        UpdatedAt: t.UpdatedAt,
    }
}

// CreateTable handles POST /v1/owner/tables.
func (h *OwnerHandler) CreateTable(c echo.Context) error {
    var body tableReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Number == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "number must be positive"})
    }
    if body.Seats == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be positive"})
    }
    t := model.Table{
        Number:    body.Number,
        Seats:     body.Seats,
        Joinable:  body.Joinable,
        Available: true, // new tables enter service immediately
        Location:  strings.TrimSpace(body.Location),
    }
    if err := h.Tables.Create(c.Request().Context(), &t); err != nil {
        if err == repository.ErrNumberExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create table"})
    }
    return c.JSON(http.StatusCreated, toTableResp(t))
}

// UpdateTable handles PUT /v1/owner/tables/:id.
func (h *OwnerHandler) UpdateTable(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body tableReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Number == 0 || body.Seats == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "number and seats must be positive"})
    }
    ctx := c.Request().Context()
    if _, err := h.Tables.GetByID(ctx, id); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    t := model.Table{
        ID:       id,
        Number:   body.Number,
        Seats:    body.Seats,
        Joinable: body.Joinable,
        Location: strings.TrimSpace(body.Location),
    }
    if err := h.Tables.Update(ctx, &t); err != nil {
        if err == repository.ErrNumberExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    updated, err := h.Tables.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, toTableResp(updated))
}

// SetTableAvailability handles PATCH /v1/owner/tables/:id/availability.
// Tables referenced by assignments are never deleted; taking one out of
// service is always expressed through this flag.
func (h *OwnerHandler) SetTableAvailability(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Available *bool `json:"available"`
    }
    if err := c.Bind(&body); err != nil || body.Available == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "available is required"})
    }
    ctx := c.Request().Context()
    if _, err := h.Tables.GetByID(ctx, id); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    if err := h.Tables.SetAvailability(ctx, id, *body.Available); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    updated, err := h.Tables.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, toTableResp(updated))
}

// ListTables handles GET /v1/owner/tables and returns the whole floor
// including tables retired for maintenance.
func (h *OwnerHandler) ListTables(c echo.Context) error {
    items, err := h.Tables.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    out := make([]tableResp, 0, len(items))
    for _, t := range items {
        out = append(out, toTableResp(t))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
