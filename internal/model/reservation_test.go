package model

import (
    "testing"
    "time"
)

// allowedEdges mirrors the documented transition table.  Every pair of
// statuses is checked against it so that no extra edge can sneak in.
var allowedEdges = map[ReservationStatus]map[ReservationStatus]bool{
    StatusCreated:   {StatusConfirmed: true, StatusCanceled: true},
    StatusConfirmed: {StatusCheckedIn: true, StatusCanceled: true, StatusNoShow: true},
    StatusCheckedIn: {StatusCompleted: true},
    StatusCompleted: {},
    StatusNoShow:    {},
    StatusCanceled:  {},
}

func TestCanTransitionToMatchesEdgeTable(t *testing.T) {
    all := []ReservationStatus{
        StatusCreated, StatusConfirmed, StatusCheckedIn,
        StatusCompleted, StatusNoShow, StatusCanceled,
    }
    for _, from := range all {
        for _, to := range all {
            want := allowedEdges[from][to]
            if got := from.CanTransitionTo(to); got != want {
                t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
            }
        }
    }
}

func TestCanTransitionToUnknownStatus(t *testing.T) {
    if StatusCreated.CanTransitionTo("PENDING") {
        t.Error("transition to unrecognised status must be rejected")
    }
    if ReservationStatus("PENDING").CanTransitionTo(StatusConfirmed) {
        t.Error("transition from unrecognised status must be rejected")
    }
}

func TestTerminalAndActive(t *testing.T) {
    for _, s := range []ReservationStatus{StatusCompleted, StatusNoShow, StatusCanceled} {
        if !s.Terminal() {
            t.Errorf("%s should be terminal", s)
        }
        if s.ActiveStatus() {
            t.Errorf("%s should not be active", s)
        }
    }
    for _, s := range []ReservationStatus{StatusCreated, StatusConfirmed, StatusCheckedIn} {
        if s.Terminal() {
            t.Errorf("%s should not be terminal", s)
        }
        if !s.ActiveStatus() {
            t.Errorf("%s should be active", s)
        }
    }
}

func mustClock(t *testing.T, hhmm string) time.Time {
    t.Helper()
    tm, err := time.Parse("15:04", hhmm)
    if err != nil {
        t.Fatalf("parse %q: %v", hhmm, err)
    }
    return tm
}

func TestSlotOverlaps(t *testing.T) {
    dinner := Slot{StartTime: mustClock(t, "19:00"), EndTime: mustClock(t, "21:30")}
    late := Slot{StartTime: mustClock(t, "21:00"), EndTime: mustClock(t, "23:00")}
    lunch := Slot{StartTime: mustClock(t, "12:00"), EndTime: mustClock(t, "14:30")}

    if !dinner.Overlaps(late) || !late.Overlaps(dinner) {
        t.Error("dinner and late seating overlap on 21:00-21:30")
    }
    if dinner.Overlaps(lunch) {
        t.Error("dinner and lunch must not overlap")
    }
    // touching windows do not overlap: [12:00,14:30) vs [14:30,16:00)
    tea := Slot{StartTime: mustClock(t, "14:30"), EndTime: mustClock(t, "16:00")}
    if lunch.Overlaps(tea) {
        t.Error("adjacent windows sharing a boundary must not overlap")
    }
}

func TestSlotContains(t *testing.T) {
    dinner := Slot{StartTime: mustClock(t, "19:00"), EndTime: mustClock(t, "21:30")}
    if !dinner.Contains(mustClock(t, "19:00")) {
        t.Error("start bound is inclusive")
    }
    if dinner.Contains(mustClock(t, "21:30")) {
        t.Error("end bound is exclusive")
    }
    if dinner.Contains(mustClock(t, "18:59")) {
        t.Error("before the window")
    }
}
