package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// SlotRepo provides access to the recurring service windows.  The
// start_time and end_time columns are MySQL TIME values; they are
// parsed into time.Time anchored at the zero date so the model's
// Contains/Overlaps comparisons work on the time of day alone.
type SlotRepo struct {
    db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const clockLayout = "15:04:05"

// ParseClock parses a TIME column value (HH:MM:SS) into a time.Time
// anchored at the zero date.
func ParseClock(s string) (time.Time, error) {
    return time.Parse(clockLayout, s)
}

// FormatClock renders a time of day the way MySQL TIME columns expect.
func FormatClock(t time.Time) string {
    return t.Format(clockLayout)
}

func scanSlot(row interface{ Scan(...any) error }) (model.Slot, error) {
    var (
        s          model.Slot
        start, end string
    )
    if err := row.Scan(&s.ID, &start, &end, &s.Closed, &s.CreatedAt, &s.UpdatedAt); err != nil {
        return model.Slot{}, err
    }
    var err error
    if s.StartTime, err = ParseClock(start); err != nil {
        return model.Slot{}, err
    }
    if s.EndTime, err = ParseClock(end); err != nil {
        return model.Slot{}, err
    }
    return s, nil
}

const slotColumns = `id, start_time, end_time, closed, created_at, updated_at`

// GetByID returns a single slot or sql.ErrNoRows.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.Slot, error) {
    return scanSlot(r.db.QueryRowContext(ctx,
        `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id))
}

// ListOpen returns the bookable service windows ordered by start time.
func (r *SlotRepo) ListOpen(ctx context.Context) ([]model.Slot, error) {
    return r.list(ctx, `SELECT `+slotColumns+` FROM slots WHERE closed = 0 ORDER BY start_time`)
}

// ListAll returns every slot, open or closed, ordered by start time.
// Used by the owner administration endpoints.
func (r *SlotRepo) ListAll(ctx context.Context) ([]model.Slot, error) {
    return r.list(ctx, `SELECT `+slotColumns+` FROM slots ORDER BY start_time`)
}

func (r *SlotRepo) list(ctx context.Context, query string) ([]model.Slot, error) {
    rows, err := r.db.QueryContext(ctx, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    slots := make([]model.Slot, 0)
    for rows.Next() {
        s, err := scanSlot(rows)
        if err != nil {
            return nil, err
        }
        slots = append(slots, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return slots, nil
}

// Create inserts a new service window and populates the generated ID.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO slots (start_time, end_time, closed) VALUES (?, ?, ?)`,
        FormatClock(s.StartTime), FormatClock(s.EndTime), s.Closed)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// Update rewrites the window bounds of a slot.
func (r *SlotRepo) Update(ctx context.Context, s *model.Slot) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE slots SET start_time = ?, end_time = ? WHERE id = ?`,
        FormatClock(s.StartTime), FormatClock(s.EndTime), s.ID)
    return err
}

// SetClosed opens or closes a slot for booking.  Existing reservations
// on a closed slot are untouched; only new bookings are refused.
func (r *SlotRepo) SetClosed(ctx context.Context, id uint64, closed bool) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE slots SET closed = ? WHERE id = ?`, closed, id)
    return err
}
