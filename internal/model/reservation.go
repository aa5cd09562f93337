package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// Status only ever moves forward along the edges in transitions below;
// backward or lateral moves are rejected by the service layer.
type ReservationStatus string

const (
    StatusCreated   ReservationStatus = "CREATED"
    StatusConfirmed ReservationStatus = "CONFIRMED"
    StatusCheckedIn ReservationStatus = "CHECKED_IN"
    StatusCompleted ReservationStatus = "COMPLETED"
    StatusNoShow    ReservationStatus = "NO_SHOW"
    StatusCanceled  ReservationStatus = "CANCELED"
)

// transitions is the full edge table of the reservation state machine.
// COMPLETED, NO_SHOW and CANCELED are terminal and have no outgoing
// edges.
var transitions = map[ReservationStatus][]ReservationStatus{
    StatusCreated:   {StatusConfirmed, StatusCanceled},
    StatusConfirmed: {StatusCheckedIn, StatusCanceled, StatusNoShow},
    StatusCheckedIn: {StatusCompleted},
    StatusCompleted: {},
    StatusNoShow:    {},
    StatusCanceled:  {},
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
    _, ok := transitions[s]
    return ok
}

// CanTransitionTo reports whether the edge s -> next exists in the
// state machine.  Unknown statuses on either side yield false.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
    for _, allowed := range transitions[s] {
        if allowed == next {
            return true
        }
    }
    return false
}

// Terminal reports whether the status has no outgoing edges.
func (s ReservationStatus) Terminal() bool {
    return s == StatusCompleted || s == StatusNoShow || s == StatusCanceled
}

// ActiveStatus reports whether a reservation in this status still
// occupies its tables.  Only active reservations count when computing
// the occupied set for a (date, slot) pair.
func (s ReservationStatus) ActiveStatus() bool {
    return s == StatusCreated || s == StatusConfirmed || s == StatusCheckedIn
}

// Reservation records a customer's booking of one or more tables for a
// date and service window.  The assignment list is owned exclusively by
// the reservation: assignments are created with it, replaced wholesale
// on re-allocation and removed together with it, never individually.
//
// Fields:
//  ID          – primary key identifier.
//  CustomerID  – user who made the reservation.
//  Date        – calendar date of the visit (time part zeroed, UTC).
//  SlotID      – service window being booked.
//  Guests      – party size (positive).
//  Notes       – free-text notes for the kitchen or floor staff.
//  Status      – current lifecycle state.
//  CreatedAt   – creation timestamp.
//  Assignments – tables allocated to this reservation, in allocation order.
type Reservation struct {
    ID          uint64            // reservations.id
    CustomerID  uint64            // reservations.customer_id
    Date        time.Time         // reservations.reservation_date
    SlotID      uint64            // reservations.slot_id
    Guests      int               // reservations.guests
    Notes       string            // reservations.notes
    Status      ReservationStatus // reservations.status
    CreatedAt   time.Time         // reservations.created_at
    Assignments []TableAssignment
}

// TableAssignment links a reservation to one table of its combination.
// All assignments of one reservation share a merge group identifier so
// that joined tables can be recognised as a unit on the floor.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  TableID       – assigned table.
//  SeatsAssigned – seats credited to this table within the merge.
//  MergeGroup    – identifier shared by the whole combination.
//  CreatedAt     – creation timestamp.
type TableAssignment struct {
    ID            uint64    // table_assignments.id
    ReservationID uint64    // table_assignments.reservation_id
    TableID       uint64    // table_assignments.table_id
    SeatsAssigned uint32    // table_assignments.seats_assigned
    MergeGroup    string    // table_assignments.merge_group
    CreatedAt     time.Time // table_assignments.created_at
}
