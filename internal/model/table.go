package model

import "time"

// Table describes a physical table on the restaurant floor.  Tables
// are identified by a unique positive table number and carry a seat
// count, a joinable flag indicating whether the table may be merged
// with neighbours to host larger parties, and an availability flag
// toggled by maintenance independently of reservations.
//
// Fields:
//  ID        – primary key identifier.
//  Number    – unique, positive table number printed on the floor plan.
//  Seats     – number of seats (positive).
//  Joinable  – whether the table can be joined with others.
//  Available – whether the table may be allocated at all.
//  Location  – free-text label (e.g. "terrace", "main room").
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
    ID        uint64    // tables.id
    Number    uint32    // tables.number
    Seats     uint32    // tables.seats
    Joinable  bool      // tables.joinable
    Available bool      // tables.available
    Location  string    // tables.location
    CreatedAt time.Time // tables.created_at
    UpdatedAt time.Time // tables.updated_at
}

// CanFitAlone reports whether the table seats the whole party without
// being joined to another table.
func (t Table) CanFitAlone(guests int) bool {
    return guests > 0 && int(t.Seats) >= guests
}
