package model

import "time"

// Slot is a recurring daily service window (e.g. dinner 19:00–21:30).
// A slot is independent of any calendar date; reservations pair a slot
// with a date.  Closed slots cannot receive new reservations.
//
// Fields:
//  ID        – primary key identifier.
//  StartTime – start of the window.  Only the time of day is meaningful;
//              both bounds are anchored to the zero date by the repository.
//  EndTime   – end of the window, strictly after StartTime.
//  Closed    – whether the slot is closed for booking.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Slot struct {
    ID        uint64    // slots.id
    StartTime time.Time // slots.start_time
    EndTime   time.Time // slots.end_time
    Closed    bool      // slots.closed
    CreatedAt time.Time // slots.created_at
    UpdatedAt time.Time // slots.updated_at
}

// Contains reports whether the given time of day falls inside the
// window.  The start bound is inclusive, the end bound exclusive.
func (s Slot) Contains(t time.Time) bool {
    return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

// Overlaps reports whether two service windows intersect.
func (s Slot) Overlaps(other Slot) bool {
    return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}
