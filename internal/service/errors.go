// Package service implements the reservation lifecycle: it owns the
// reservation state machine, runs the conflict check and the
// allocation search as one serialized unit per (date, slot), and
// triggers best-effort notifications after each successful transition.
package service

import (
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// Sentinel outcomes of the booking operations.  These are expected
// business results, surfaced to callers as typed values; only
// persistence failures and truly unexpected errors propagate opaque.
var (
    // ErrInvalidInput marks malformed arguments: non-positive guests,
    // an unknown customer or slot, or a date in the past.  Never worth
    // retrying unchanged.
    ErrInvalidInput = errors.New("invalid input")

    // ErrSlotClosed is returned when booking against a closed service
    // window.
    ErrSlotClosed = errors.New("slot is closed")

    // ErrNoTablesAvailable means the allocation search exhausted all
    // singles and subsets without seating the party.  Safe to retry
    // later: state may change.
    ErrNoTablesAvailable = errors.New("no tables available")

    // ErrInvalidTransition marks a status change that violates the
    // state machine, including any attempt to leave a terminal state.
    ErrInvalidTransition = errors.New("invalid status transition")

    // ErrUnauthorized is returned when the requester lacks rights over
    // the reservation.
    ErrUnauthorized = errors.New("unauthorized")

    // ErrNotFound is returned when the referenced reservation does not
    // exist.
    ErrNotFound = errors.New("not found")

    // ErrConflict means the reservation's status moved underneath the
    // caller between read and write.  The caller should re-read before
    // deciding anything.
    ErrConflict = errors.New("conflict")
)

// isNotFound accepts both the service sentinel (from in-memory stores)
// and the database sentinel (from the SQL store).
func isNotFound(err error) bool {
    return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

func isConflict(err error) bool {
    return errors.Is(err, ErrConflict) || errors.Is(err, repository.ErrConflict)
}
