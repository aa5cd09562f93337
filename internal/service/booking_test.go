package service

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ---- in-memory fakes ------------------------------------------------

type fakeTableStore struct {
    tables []model.Table
}

func (f *fakeTableStore) ListAvailable(ctx context.Context) ([]model.Table, error) {
    out := make([]model.Table, 0, len(f.tables))
    for _, t := range f.tables {
        if t.Available {
            out = append(out, t)
        }
    }
    return out, nil
}

type fakeSlotStore struct {
    slots map[uint64]model.Slot
}

func (f *fakeSlotStore) GetByID(ctx context.Context, id uint64) (model.Slot, error) {
    s, ok := f.slots[id]
    if !ok {
        return model.Slot{}, ErrNotFound
    }
    return s, nil
}

func (f *fakeSlotStore) ListOpen(ctx context.Context) ([]model.Slot, error) {
    var out []model.Slot
    for _, s := range f.slots {
        if !s.Closed {
            out = append(out, s)
        }
    }
    return out, nil
}

// fakeReservationStore mimics the transactional contract of the SQL
// store: creation re-checks the occupied set under its own lock and
// fails with ErrConflict when a chosen table was claimed in between.
type fakeReservationStore struct {
    mu           sync.Mutex
    nextID       uint64
    reservations map[uint64]*model.Reservation
}

func newFakeReservationStore() *fakeReservationStore {
    return &fakeReservationStore{nextID: 1, reservations: make(map[uint64]*model.Reservation)}
}

func (f *fakeReservationStore) occupiedLocked(date time.Time, slotID uint64) map[uint64]struct{} {
    occupied := make(map[uint64]struct{})
    for _, r := range f.reservations {
        if !r.Date.Equal(date) || r.SlotID != slotID || !r.Status.ActiveStatus() {
            continue
        }
        for _, a := range r.Assignments {
            occupied[a.TableID] = struct{}{}
        }
    }
    return occupied
}

func (f *fakeReservationStore) OccupiedTableIDs(ctx context.Context, date time.Time, slotID uint64) (map[uint64]struct{}, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.occupiedLocked(date, slotID), nil
}

func (f *fakeReservationStore) CreateWithAssignments(ctx context.Context, res *model.Reservation) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    occupied := f.occupiedLocked(res.Date, res.SlotID)
    for _, a := range res.Assignments {
        if _, taken := occupied[a.TableID]; taken {
            return fmt.Errorf("table %d already reserved: %w", a.TableID, ErrConflict)
        }
    }
    res.ID = f.nextID
    f.nextID++
    group := MergeGroupFor(res.ID)
    for i := range res.Assignments {
        res.Assignments[i].ReservationID = res.ID
        res.Assignments[i].MergeGroup = group
    }
    stored := *res
    stored.Assignments = append([]model.TableAssignment(nil), res.Assignments...)
    f.reservations[res.ID] = &stored
    return nil
}

func (f *fakeReservationStore) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.reservations[id]
    if !ok {
        return model.Reservation{}, ErrNotFound
    }
    return *r, nil
}

func (f *fakeReservationStore) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.reservations[id]
    if !ok {
        return ErrNotFound
    }
    if r.Status != from {
        return fmt.Errorf("reservation %d moved to %s: %w", id, r.Status, ErrConflict)
    }
    r.Status = to
    return nil
}

func (f *fakeReservationStore) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Reservation
    for _, r := range f.reservations {
        if r.Date.Equal(date) {
            out = append(out, *r)
        }
    }
    return out, nil
}

func (f *fakeReservationStore) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Reservation
    for _, r := range f.reservations {
        if r.CustomerID == customerID {
            out = append(out, *r)
        }
    }
    return out, nil
}

type fakeUserStore struct {
    users map[uint64]model.User
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
    u, ok := f.users[id]
    if !ok {
        return model.User{}, ErrNotFound
    }
    return u, nil
}

type recordingNotifier struct {
    mu   sync.Mutex
    sent []string // "customerID|kind"
    fail bool
}

func (n *recordingNotifier) Notify(ctx context.Context, customerID uint64, message, kind string) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.fail {
        return errors.New("broker down")
    }
    n.sent = append(n.sent, fmt.Sprintf("%d|%s", customerID, kind))
    return nil
}

// ---- fixture --------------------------------------------------------

type fixture struct {
    svc          *BookingService
    tables       *fakeTableStore
    slots        *fakeSlotStore
    reservations *fakeReservationStore
    users        *fakeUserStore
    notifier     *recordingNotifier
}

func newFixture(tables ...model.Table) *fixture {
    f := &fixture{
        tables: &fakeTableStore{tables: tables},
        slots: &fakeSlotStore{slots: map[uint64]model.Slot{
            1: {ID: 1, StartTime: clockAt(19, 0), EndTime: clockAt(21, 30)},
            2: {ID: 2, StartTime: clockAt(12, 0), EndTime: clockAt(14, 0), Closed: true},
        }},
        reservations: newFakeReservationStore(),
        users: &fakeUserStore{users: map[uint64]model.User{
            10: {ID: 10, Email: "ana@example.com", DisplayName: "Ana", Role: model.RoleCustomer},
            11: {ID: 11, Email: "bob@example.com", DisplayName: "Bob", Role: model.RoleCustomer},
            20: {ID: 20, Email: "host@example.com", DisplayName: "Host", Role: model.RoleStaff},
        }},
        notifier: &recordingNotifier{},
    }
    f.svc = NewBookingService(f.tables, f.slots, f.reservations, f.users, f.notifier)
    return f
}

func clockAt(h, m int) time.Time {
    return time.Date(0, time.January, 1, h, m, 0, 0, time.UTC)
}

func tomorrow() time.Time {
    return time.Now().UTC().AddDate(0, 0, 1)
}

func table(id uint64, seats uint32, joinable bool) model.Table {
    return model.Table{ID: id, Number: uint32(id), Seats: seats, Joinable: joinable, Available: true}
}

// ---- creation -------------------------------------------------------

func TestCreateReservationSingleTable(t *testing.T) {
    f := newFixture(table(1, 2, true), table(2, 4, true), table(3, 6, false))
    res, err := f.svc.CreateReservation(context.Background(), 10, tomorrow(), 1, 4, "window seat")
    if err != nil {
        t.Fatalf("CreateReservation: %v", err)
    }
    if res.Status != model.StatusCreated {
        t.Fatalf("status = %s, want CREATED", res.Status)
    }
    if len(res.Assignments) != 1 || res.Assignments[0].TableID != 2 {
        t.Fatalf("assignments = %+v, want single table 2", res.Assignments)
    }
    if got := res.Assignments[0].MergeGroup; got != MergeGroupFor(res.ID) {
        t.Fatalf("merge group = %q, want %q", got, MergeGroupFor(res.ID))
    }
    if len(f.notifier.sent) != 1 || f.notifier.sent[0] != "10|"+NotifyConfirmation {
        t.Fatalf("notifications = %v", f.notifier.sent)
    }
}

func TestCreateReservationJoinsTables(t *testing.T) {
    // Two fours joined seat 8-2=6.
    f := newFixture(table(1, 4, true), table(2, 4, true))
    res, err := f.svc.CreateReservation(context.Background(), 10, tomorrow(), 1, 6, "")
    if err != nil {
        t.Fatalf("CreateReservation: %v", err)
    }
    if len(res.Assignments) != 2 {
        t.Fatalf("got %d assignments, want 2", len(res.Assignments))
    }
    group := res.Assignments[0].MergeGroup
    for _, a := range res.Assignments {
        if a.MergeGroup != group {
            t.Fatalf("assignments carry different merge groups: %+v", res.Assignments)
        }
        if a.SeatsAssigned != 4 {
            t.Fatalf("seats assigned = %d, want full table seats", a.SeatsAssigned)
        }
    }
}

func TestCreateReservationValidation(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    cases := []struct {
        name     string
        customer uint64
        date     time.Time
        slot     uint64
        guests   int
        want     error
    }{
        {"zero guests", 10, tomorrow(), 1, 0, ErrInvalidInput},
        {"negative guests", 10, tomorrow(), 1, -3, ErrInvalidInput},
        {"past date", 10, time.Now().UTC().AddDate(0, 0, -1), 1, 2, ErrInvalidInput},
        {"unknown customer", 99, tomorrow(), 1, 2, ErrInvalidInput},
        {"unknown slot", 10, tomorrow(), 42, 2, ErrInvalidInput},
        {"closed slot", 10, tomorrow(), 2, 2, ErrSlotClosed},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := f.svc.CreateReservation(ctx, tc.customer, tc.date, tc.slot, tc.guests, "")
            if !errors.Is(err, tc.want) {
                t.Fatalf("err = %v, want %v", err, tc.want)
            }
        })
    }
    if len(f.notifier.sent) != 0 {
        t.Fatalf("rejected requests must not notify, got %v", f.notifier.sent)
    }
}

func TestCreateReservationTodayAllowed(t *testing.T) {
    f := newFixture(table(1, 4, true))
    if _, err := f.svc.CreateReservation(context.Background(), 10, time.Now().UTC(), 1, 2, ""); err != nil {
        t.Fatalf("same-day booking rejected: %v", err)
    }
}

func TestCreateReservationNoCapacity(t *testing.T) {
    f := newFixture(table(1, 4, true), table(2, 4, true), table(3, 4, true))
    // Three fours joined seat 12-4=8 < 10.
    _, err := f.svc.CreateReservation(context.Background(), 10, tomorrow(), 1, 10, "")
    if !errors.Is(err, ErrNoTablesAvailable) {
        t.Fatalf("err = %v, want ErrNoTablesAvailable", err)
    }
}

func TestDoubleBookingPrevented(t *testing.T) {
    f := newFixture(table(1, 4, true), table(2, 4, true))
    ctx := context.Background()
    day := tomorrow()

    first, err := f.svc.CreateReservation(ctx, 10, day, 1, 4, "")
    if err != nil {
        t.Fatalf("first booking: %v", err)
    }
    second, err := f.svc.CreateReservation(ctx, 11, day, 1, 4, "")
    if err != nil {
        t.Fatalf("second booking: %v", err)
    }
    if first.Assignments[0].TableID == second.Assignments[0].TableID {
        t.Fatalf("both reservations got table %d", first.Assignments[0].TableID)
    }

    // Both tables are now taken for this window.
    if _, err := f.svc.CreateReservation(ctx, 10, day, 1, 2, ""); !errors.Is(err, ErrNoTablesAvailable) {
        t.Fatalf("third booking err = %v, want ErrNoTablesAvailable", err)
    }

    // A different slot on the same day still has the full floor.
    f.slots.slots[3] = model.Slot{ID: 3, StartTime: clockAt(17, 0), EndTime: clockAt(19, 0)}
    if _, err := f.svc.CreateReservation(ctx, 10, day, 3, 4, ""); err != nil {
        t.Fatalf("booking other slot: %v", err)
    }
}

func TestCanceledReservationFreesTables(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    day := tomorrow()

    res, err := f.svc.CreateReservation(ctx, 10, day, 1, 4, "")
    if err != nil {
        t.Fatalf("booking: %v", err)
    }
    if err := f.svc.CancelReservation(ctx, res.ID, 10); err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if _, err := f.svc.CreateReservation(ctx, 11, day, 1, 4, ""); err != nil {
        t.Fatalf("rebooking freed table: %v", err)
    }
}

func TestConcurrentLastTable(t *testing.T) {
    f := newFixture(table(1, 4, true))
    day := tomorrow()

    const attempts = 8
    var wg sync.WaitGroup
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = f.svc.CreateReservation(context.Background(), 10, day, 1, 4, "")
        }(i)
    }
    wg.Wait()

    won := 0
    for _, err := range errs {
        switch {
        case err == nil:
            won++
        case errors.Is(err, ErrNoTablesAvailable):
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if won != 1 {
        t.Fatalf("%d requests won the last table, want exactly 1", won)
    }
}

// ---- lifecycle ------------------------------------------------------

func TestCancelAuthorization(t *testing.T) {
    ctx := context.Background()

    t.Run("owner customer may cancel", func(t *testing.T) {
        f := newFixture(table(1, 4, true))
        res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
        if err := f.svc.CancelReservation(ctx, res.ID, 10); err != nil {
            t.Fatalf("cancel: %v", err)
        }
        got, _ := f.reservations.GetByID(ctx, res.ID)
        if got.Status != model.StatusCanceled {
            t.Fatalf("status = %s, want CANCELED", got.Status)
        }
    })

    t.Run("other customer may not", func(t *testing.T) {
        f := newFixture(table(1, 4, true))
        res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
        if err := f.svc.CancelReservation(ctx, res.ID, 11); !errors.Is(err, ErrUnauthorized) {
            t.Fatalf("err = %v, want ErrUnauthorized", err)
        }
    })

    t.Run("staff may cancel any", func(t *testing.T) {
        f := newFixture(table(1, 4, true))
        res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
        if err := f.svc.CancelReservation(ctx, res.ID, 20); err != nil {
            t.Fatalf("staff cancel: %v", err)
        }
    })

    t.Run("unknown reservation", func(t *testing.T) {
        f := newFixture(table(1, 4, true))
        if err := f.svc.CancelReservation(ctx, 404, 10); !errors.Is(err, ErrNotFound) {
            t.Fatalf("err = %v, want ErrNotFound", err)
        }
    })
}

func TestCancelTwiceFails(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
    if err := f.svc.CancelReservation(ctx, res.ID, 10); err != nil {
        t.Fatalf("first cancel: %v", err)
    }
    if err := f.svc.CancelReservation(ctx, res.ID, 10); !errors.Is(err, ErrInvalidTransition) {
        t.Fatalf("second cancel err = %v, want ErrInvalidTransition", err)
    }
}

func TestAdvanceHappyPath(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")

    for _, target := range []model.ReservationStatus{
        model.StatusConfirmed, model.StatusCheckedIn, model.StatusCompleted,
    } {
        if err := f.svc.AdvanceReservation(ctx, res.ID, target); err != nil {
            t.Fatalf("advance to %s: %v", target, err)
        }
    }
    got, _ := f.reservations.GetByID(ctx, res.ID)
    if got.Status != model.StatusCompleted {
        t.Fatalf("status = %s, want COMPLETED", got.Status)
    }
}

func TestAdvanceRejectsBackwardEdge(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
    for _, target := range []model.ReservationStatus{
        model.StatusConfirmed, model.StatusCheckedIn, model.StatusCompleted,
    } {
        if err := f.svc.AdvanceReservation(ctx, res.ID, target); err != nil {
            t.Fatalf("advance to %s: %v", target, err)
        }
    }
    if err := f.svc.AdvanceReservation(ctx, res.ID, model.StatusConfirmed); !errors.Is(err, ErrInvalidTransition) {
        t.Fatalf("COMPLETED->CONFIRMED err = %v, want ErrInvalidTransition", err)
    }
    got, _ := f.reservations.GetByID(ctx, res.ID)
    if got.Status != model.StatusCompleted {
        t.Fatalf("rejected transition changed status to %s", got.Status)
    }
}

func TestAdvanceRejectsUnknownStatus(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
    if err := f.svc.AdvanceReservation(ctx, res.ID, "SEATED"); !errors.Is(err, ErrInvalidTransition) {
        t.Fatalf("err = %v, want ErrInvalidTransition", err)
    }
}

func TestNoShowReleasesTables(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    day := tomorrow()
    res, _ := f.svc.CreateReservation(ctx, 10, day, 1, 2, "")
    if err := f.svc.AdvanceReservation(ctx, res.ID, model.StatusConfirmed); err != nil {
        t.Fatalf("confirm: %v", err)
    }
    if err := f.svc.AdvanceReservation(ctx, res.ID, model.StatusNoShow); err != nil {
        t.Fatalf("no-show: %v", err)
    }
    if _, err := f.svc.CreateReservation(ctx, 11, day, 1, 2, ""); err != nil {
        t.Fatalf("rebooking after no-show: %v", err)
    }
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
    f := newFixture(table(1, 4, true))
    f.notifier.fail = true
    ctx := context.Background()
    res, err := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")
    if err != nil {
        t.Fatalf("create with failing notifier: %v", err)
    }
    if err := f.svc.CancelReservation(ctx, res.ID, 10); err != nil {
        t.Fatalf("cancel with failing notifier: %v", err)
    }
}

// ---- reads ----------------------------------------------------------

func TestGetReservationOwnership(t *testing.T) {
    f := newFixture(table(1, 4, true))
    ctx := context.Background()
    res, _ := f.svc.CreateReservation(ctx, 10, tomorrow(), 1, 2, "")

    if _, err := f.svc.GetReservation(ctx, res.ID, 10); err != nil {
        t.Fatalf("owner read: %v", err)
    }
    if _, err := f.svc.GetReservation(ctx, res.ID, 11); !errors.Is(err, ErrUnauthorized) {
        t.Fatalf("foreign read err = %v, want ErrUnauthorized", err)
    }
    if _, err := f.svc.GetReservation(ctx, res.ID, 20); err != nil {
        t.Fatalf("staff read: %v", err)
    }
    if _, err := f.svc.GetReservation(ctx, 404, 10); !errors.Is(err, ErrNotFound) {
        t.Fatalf("missing read err = %v, want ErrNotFound", err)
    }
}

func TestCheckAvailability(t *testing.T) {
    f := newFixture(table(1, 2, true), table(2, 4, true))
    ctx := context.Background()
    day := tomorrow()

    combo, err := f.svc.CheckAvailability(ctx, day, 1, 4)
    if err != nil {
        t.Fatalf("CheckAvailability: %v", err)
    }
    if len(combo) != 1 || combo[0].ID != 2 {
        t.Fatalf("combo = %+v, want table 2 alone", combo)
    }

    // The probe must not hold anything.
    if _, err := f.svc.CreateReservation(ctx, 10, day, 1, 4, ""); err != nil {
        t.Fatalf("booking after probe: %v", err)
    }
    if _, err := f.svc.CheckAvailability(ctx, day, 1, 4); !errors.Is(err, ErrNoTablesAvailable) {
        t.Fatalf("probe after booking err = %v, want ErrNoTablesAvailable", err)
    }
    if _, err := f.svc.CheckAvailability(ctx, day, 2, 2); !errors.Is(err, ErrSlotClosed) {
        t.Fatalf("probe on closed slot err = %v, want ErrSlotClosed", err)
    }
}

func TestSlotLockSweepsPastDates(t *testing.T) {
    f := newFixture(table(1, 4, true))

    f.svc.mu.Lock()
    for i := 0; i < lockSweepThreshold; i++ {
        day := time.Now().UTC().AddDate(0, 0, -(i + 1)).Format("2006-01-02")
        f.svc.locks[day+"#1"] = &sync.Mutex{}
    }
    f.svc.mu.Unlock()

    lock := f.svc.slotLock(normalizeDate(tomorrow()), 1)
    if lock == nil {
        t.Fatal("slotLock returned nil")
    }

    f.svc.mu.Lock()
    n := len(f.svc.locks)
    f.svc.mu.Unlock()
    if n != 1 {
        t.Fatalf("locks map holds %d entries after sweep, want 1", n)
    }

    // Same key resolves to the same mutex afterwards.
    if again := f.svc.slotLock(normalizeDate(tomorrow()), 1); again != lock {
        t.Fatal("sweep replaced a live mutex")
    }
}
