package service

import (
    "context"
    "fmt"
    "log"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/allocation"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Notification kinds carried on reservation events.
const (
    NotifyConfirmation = "CONFIRMATION"
    NotifyReminder     = "REMINDER"
    NotifyUpdate       = "UPDATE"
    NotifyAlert        = "ALERT"
)

// TableStore is the registry read path used during allocation.
type TableStore interface {
    ListAvailable(ctx context.Context) ([]model.Table, error)
}

// SlotStore resolves service windows.  GetByID returns ErrNotFound
// when the slot does not exist.
type SlotStore interface {
    GetByID(ctx context.Context, id uint64) (model.Slot, error)
    ListOpen(ctx context.Context) ([]model.Slot, error)
}

// ReservationStore is the persistence port of the lifecycle.
//
// CreateWithAssignments persists a reservation together with all of
// its assignments, or nothing: the implementation must run the write
// in one transactional scope, re-verify that none of the assigned
// tables was claimed by a competing active reservation for the same
// (date, slot), and return ErrConflict when one was.  UpdateStatus is
// optimistic: it only applies when the stored status still equals
// from, returning ErrConflict otherwise and ErrNotFound for a missing
// reservation.
type ReservationStore interface {
    OccupiedTableIDs(ctx context.Context, date time.Time, slotID uint64) (map[uint64]struct{}, error)
    CreateWithAssignments(ctx context.Context, res *model.Reservation) error
    GetByID(ctx context.Context, id uint64) (model.Reservation, error)
    UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error
    ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
    ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error)
}

// UserStore is the customer directory: it validates ownership for
// cancellation and addresses notifications.  GetByID returns
// ErrNotFound for unknown users.
type UserStore interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Notifier delivers a message to a customer.  Delivery is fire and
// forget: the booking service logs failures and never lets them change
// the outcome of the triggering operation.
type Notifier interface {
    Notify(ctx context.Context, customerID uint64, message, kind string) error
}

// BookingService coordinates the reservation lifecycle.  All
// collaborators are injected at construction; the service holds no
// global state.  A keyed mutex serializes the conflict-check /
// allocate / persist sequence per (date, slot) so two concurrent
// requests for the same window can never both claim the last table.
type BookingService struct {
    tables       TableStore
    slots        SlotStore
    reservations ReservationStore
    users        UserStore
    notifier     Notifier

    mu    sync.Mutex
    locks map[string]*sync.Mutex
}

// NewBookingService constructs a BookingService.  The stores must be
// non-nil; the notifier may be nil, which disables notifications.
func NewBookingService(tables TableStore, slots SlotStore, reservations ReservationStore, users UserStore, notifier Notifier) *BookingService {
    if tables == nil || slots == nil || reservations == nil || users == nil {
        panic("nil store passed to NewBookingService")
    }
    return &BookingService{
        tables:       tables,
        slots:        slots,
        reservations: reservations,
        users:        users,
        notifier:     notifier,
        locks:        make(map[string]*sync.Mutex),
    }
}

// lockSweepThreshold bounds the keyed-mutex map.  Once the map holds
// this many entries, creating a new one first drops the mutexes of
// past dates.
const lockSweepThreshold = 1024

// slotLock returns the mutex guarding one (date, slot) partition.
func (s *BookingService) slotLock(date time.Time, slotID uint64) *sync.Mutex {
    key := fmt.Sprintf("%s#%d", date.Format("2006-01-02"), slotID)
    s.mu.Lock()
    defer s.mu.Unlock()
    l, ok := s.locks[key]
    if !ok {
        if len(s.locks) >= lockSweepThreshold {
            s.sweepLocksLocked()
        }
        l = &sync.Mutex{}
        s.locks[key] = l
    }
    return l
}

// sweepLocksLocked drops mutexes keyed to past dates.  Past-date
// requests are rejected before any lock is taken, so a dropped mutex
// is never requested again.  Caller holds s.mu.
func (s *BookingService) sweepLocksLocked() {
    today := normalizeDate(time.Now()).Format("2006-01-02")
    for key := range s.locks {
        day, _, ok := strings.Cut(key, "#")
        if ok && day < today {
            delete(s.locks, key)
        }
    }
}

// normalizeDate truncates a timestamp to its UTC calendar date.
func normalizeDate(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateReservation books a party of guests for the given date and
// service window.  It validates the input, removes tables already
// committed to other active reservations for the same (date, slot),
// runs the combination search over the remainder and persists the
// winning reservation with all of its assignments atomically.
//
// Outcomes: ErrInvalidInput for malformed arguments, unknown customers
// or slots, or past dates; ErrSlotClosed for a closed window;
// ErrNoTablesAvailable when no combination seats the party.
func (s *BookingService) CreateReservation(ctx context.Context, customerID uint64, date time.Time, slotID uint64, guests int, notes string) (model.Reservation, error) {
    if customerID == 0 {
        return model.Reservation{}, fmt.Errorf("customer is required: %w", ErrInvalidInput)
    }
    if guests <= 0 {
        return model.Reservation{}, fmt.Errorf("guests must be greater than zero: %w", ErrInvalidInput)
    }
    day := normalizeDate(date)
    if day.Before(normalizeDate(time.Now())) {
        return model.Reservation{}, fmt.Errorf("date is in the past: %w", ErrInvalidInput)
    }

    if _, err := s.users.GetByID(ctx, customerID); err != nil {
        if isNotFound(err) {
            return model.Reservation{}, fmt.Errorf("unknown customer %d: %w", customerID, ErrInvalidInput)
        }
        return model.Reservation{}, err
    }
    slot, err := s.slots.GetByID(ctx, slotID)
    if err != nil {
        if isNotFound(err) {
            return model.Reservation{}, fmt.Errorf("unknown slot %d: %w", slotID, ErrInvalidInput)
        }
        return model.Reservation{}, err
    }
    if slot.Closed {
        return model.Reservation{}, ErrSlotClosed
    }

    // Serialize check-then-write per (date, slot).  The lock spans the
    // occupied-set read, the allocation search and the persist so a
    // concurrent request for the same window observes either nothing
    // or the committed reservation, never the gap in between.
    lock := s.slotLock(day, slotID)
    lock.Lock()
    defer lock.Unlock()

    occupied, err := s.reservations.OccupiedTableIDs(ctx, day, slotID)
    if err != nil {
        return model.Reservation{}, err
    }
    available, err := s.tables.ListAvailable(ctx)
    if err != nil {
        return model.Reservation{}, err
    }
    candidates := make([]model.Table, 0, len(available))
    for _, t := range available {
        if _, taken := occupied[t.ID]; !taken {
            candidates = append(candidates, t)
        }
    }

    combination, err := allocation.FindBestCombination(candidates, guests)
    if err != nil {
        return model.Reservation{}, ErrNoTablesAvailable
    }

    res := model.Reservation{
        CustomerID: customerID,
        Date:       day,
        SlotID:     slotID,
        Guests:     guests,
        Notes:      notes,
        Status:     model.StatusCreated,
        CreatedAt:  time.Now().UTC(),
    }
    for _, t := range combination {
        seats := t.Seats
        if seats == 0 {
            seats = 1
        }
        res.Assignments = append(res.Assignments, model.TableAssignment{
            TableID:       t.ID,
            SeatsAssigned: seats,
        })
    }
    if err := s.reservations.CreateWithAssignments(ctx, &res); err != nil {
        if isConflict(err) {
            // a competing instance claimed a table first
            return model.Reservation{}, ErrNoTablesAvailable
        }
        return model.Reservation{}, err
    }

    s.notify(ctx, customerID, fmt.Sprintf(
        "Reservation #%d received for %s at %s",
        res.ID, day.Format("2006-01-02"), slot.StartTime.Format("15:04")), NotifyConfirmation)
    return res, nil
}

// MergeGroupFor builds the identifier shared by all assignments of one
// reservation's combination.
func MergeGroupFor(reservationID uint64) string {
    return fmt.Sprintf("RES-%d", reservationID)
}

// CancelReservation cancels a reservation on behalf of a requester.
// Only the owning customer or an account with staff/owner capability
// may cancel.  Canceling an already-terminal reservation fails with
// ErrInvalidTransition; re-canceling is an error, not a no-op.
func (s *BookingService) CancelReservation(ctx context.Context, reservationID, requesterID uint64) error {
    res, err := s.reservations.GetByID(ctx, reservationID)
    if err != nil {
        if isNotFound(err) {
            return ErrNotFound
        }
        return err
    }
    requester, err := s.users.GetByID(ctx, requesterID)
    if err != nil {
        if isNotFound(err) {
            return ErrUnauthorized
        }
        return err
    }
    if !model.StaffCapability(requester.Role) && res.CustomerID != requesterID {
        return ErrUnauthorized
    }
    if !res.Status.CanTransitionTo(model.StatusCanceled) {
        return ErrInvalidTransition
    }
    if err := s.reservations.UpdateStatus(ctx, reservationID, res.Status, model.StatusCanceled); err != nil {
        return s.mapStatusErr(err)
    }
    s.notify(ctx, res.CustomerID,
        fmt.Sprintf("Your reservation #%d has been canceled", reservationID), NotifyUpdate)
    return nil
}

// AdvanceReservation moves a reservation to the target status.  The
// edge must exist in the state machine; unknown targets and edges into
// CREATED are rejected with ErrInvalidTransition and leave the status
// unchanged.
func (s *BookingService) AdvanceReservation(ctx context.Context, reservationID uint64, target model.ReservationStatus) error {
    if !target.Valid() {
        return fmt.Errorf("unrecognized status %q: %w", target, ErrInvalidTransition)
    }
    res, err := s.reservations.GetByID(ctx, reservationID)
    if err != nil {
        if isNotFound(err) {
            return ErrNotFound
        }
        return err
    }
    if !res.Status.CanTransitionTo(target) {
        return fmt.Errorf("%s -> %s: %w", res.Status, target, ErrInvalidTransition)
    }
    if err := s.reservations.UpdateStatus(ctx, reservationID, res.Status, target); err != nil {
        return s.mapStatusErr(err)
    }
    message, kind := transitionNotice(reservationID, target)
    s.notify(ctx, res.CustomerID, message, kind)
    return nil
}

// transitionNotice maps a target status to the customer-facing message
// and notification kind sent after the transition commits.
func transitionNotice(id uint64, target model.ReservationStatus) (string, string) {
    switch target {
    case model.StatusConfirmed:
        return fmt.Sprintf("Your reservation #%d has been confirmed", id), NotifyConfirmation
    case model.StatusCheckedIn:
        return fmt.Sprintf("Welcome! Reservation #%d is checked in", id), NotifyUpdate
    case model.StatusCompleted:
        return fmt.Sprintf("Thank you for visiting us (reservation #%d)", id), NotifyUpdate
    case model.StatusNoShow:
        return fmt.Sprintf("Reservation #%d was marked as a no-show", id), NotifyAlert
    default:
        return fmt.Sprintf("Your reservation #%d has been canceled", id), NotifyUpdate
    }
}

// GetReservation loads one reservation, enforcing that customers only
// see their own while staff and owners see all.
func (s *BookingService) GetReservation(ctx context.Context, reservationID, requesterID uint64) (model.Reservation, error) {
    res, err := s.reservations.GetByID(ctx, reservationID)
    if err != nil {
        if isNotFound(err) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, err
    }
    requester, err := s.users.GetByID(ctx, requesterID)
    if err != nil {
        if isNotFound(err) {
            return model.Reservation{}, ErrUnauthorized
        }
        return model.Reservation{}, err
    }
    if !model.StaffCapability(requester.Role) && res.CustomerID != requesterID {
        return model.Reservation{}, ErrUnauthorized
    }
    return res, nil
}

// ListReservationsForDate returns the reservations for a date ordered
// by the start time of their slot.
func (s *BookingService) ListReservationsForDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
    return s.reservations.ListByDate(ctx, normalizeDate(date))
}

// ListCustomerReservations returns a customer's reservations newest
// first.
func (s *BookingService) ListCustomerReservations(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
    return s.reservations.ListByCustomer(ctx, customerID)
}

// ListOpenSlots returns the bookable service windows.
func (s *BookingService) ListOpenSlots(ctx context.Context) ([]model.Slot, error) {
    return s.slots.ListOpen(ctx)
}

// CheckAvailability runs the conflict filter and the allocation search
// without persisting anything.  It answers "could this party be
// seated right now": the result is a snapshot, not a hold, and may be
// stale by the time a booking follows.
func (s *BookingService) CheckAvailability(ctx context.Context, date time.Time, slotID uint64, guests int) ([]model.Table, error) {
    if guests <= 0 {
        return nil, fmt.Errorf("guests must be greater than zero: %w", ErrInvalidInput)
    }
    slot, err := s.slots.GetByID(ctx, slotID)
    if err != nil {
        if isNotFound(err) {
            return nil, fmt.Errorf("unknown slot %d: %w", slotID, ErrInvalidInput)
        }
        return nil, err
    }
    if slot.Closed {
        return nil, ErrSlotClosed
    }
    day := normalizeDate(date)
    occupied, err := s.reservations.OccupiedTableIDs(ctx, day, slotID)
    if err != nil {
        return nil, err
    }
    available, err := s.tables.ListAvailable(ctx)
    if err != nil {
        return nil, err
    }
    candidates := make([]model.Table, 0, len(available))
    for _, t := range available {
        if _, taken := occupied[t.ID]; !taken {
            candidates = append(candidates, t)
        }
    }
    combination, err := allocation.FindBestCombination(candidates, guests)
    if err != nil {
        return nil, ErrNoTablesAvailable
    }
    return combination, nil
}

// notify delivers a best-effort notification.  Failures are logged and
// swallowed: they must never roll back or fail the operation that
// triggered them.
func (s *BookingService) notify(ctx context.Context, customerID uint64, message, kind string) {
    if s.notifier == nil {
        return
    }
    if err := s.notifier.Notify(ctx, customerID, message, kind); err != nil {
        log.Printf("booking: notify customer %d failed: %v", customerID, err)
    }
}

func (s *BookingService) mapStatusErr(err error) error {
    if isNotFound(err) {
        return ErrNotFound
    }
    if isConflict(err) {
        return ErrConflict
    }
    return err
}
