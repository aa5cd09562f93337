package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and their
// table assignments.  A reservation owns its assignment rows: they are
// inserted in the same transaction as the reservation and removed with
// it, never individually.  All timestamps are stored in UTC; the
// reservation date is a DATE column keyed together with slot_id to
// scope conflicts.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const dateLayout = "2006-01-02"

// activeStatuses is inlined into conflict queries: reservations in
// these states still occupy their tables for the (date, slot) pair.
const activeStatuses = `'CREATED','CONFIRMED','CHECKED_IN'`

// CreateTx inserts a reservation within an existing transaction and
// populates the generated ID and creation timestamp.  The caller must
// commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    result, err := tx.ExecContext(ctx,
        `INSERT INTO reservations (customer_id, reservation_date, slot_id, guests, notes, status)
         VALUES (?, ?, ?, ?, ?, ?)`,
        res.CustomerID, res.Date.Format(dateLayout), res.SlotID, res.Guests, res.Notes, string(res.Status))
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // read back the DB-assigned creation timestamp
    return tx.QueryRowContext(ctx,
        `SELECT created_at FROM reservations WHERE id = ?`, res.ID).Scan(&res.CreatedAt)
}

// CreateAssignmentsBulkTx inserts all assignment rows of one
// reservation in a single statement.  Passing an empty slice has no
// effect and returns nil.
func (r *ReservationRepo) CreateAssignmentsBulkTx(ctx context.Context, tx *sql.Tx, assignments []model.TableAssignment) error {
    if len(assignments) == 0 {
        return nil
    }
    query := `INSERT INTO table_assignments (reservation_id, table_id, seats_assigned, merge_group) VALUES `
    args := make([]interface{}, 0, len(assignments)*4)
    for i, a := range assignments {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, a.ReservationID, a.TableID, a.SeatsAssigned, a.MergeGroup)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ReservedTableIDsTx returns the IDs of tables committed to active
// reservations for (date, slotID), locking the matching assignment
// rows with FOR UPDATE so a concurrent booking transaction for the
// same pair blocks until this one commits.  This is the check half of
// the check-then-write sequence and must run inside the same
// transaction as the write half.
func (r *ReservationRepo) ReservedTableIDsTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) (map[uint64]struct{}, error) {
    const q = `SELECT ta.table_id
               FROM table_assignments ta
               JOIN reservations res ON res.id = ta.reservation_id
               WHERE res.reservation_date = ? AND res.slot_id = ?
                 AND res.status IN (` + activeStatuses + `)
               FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, date.Format(dateLayout), slotID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectTableIDs(rows)
}

// ReservedTableIDs is the read-only variant used by the availability
// probe.  It reflects current state at call time without locking.
func (r *ReservationRepo) ReservedTableIDs(ctx context.Context, date time.Time, slotID uint64) (map[uint64]struct{}, error) {
    const q = `SELECT ta.table_id
               FROM table_assignments ta
               JOIN reservations res ON res.id = ta.reservation_id
               WHERE res.reservation_date = ? AND res.slot_id = ?
                 AND res.status IN (` + activeStatuses + `)`
    rows, err := r.db.QueryContext(ctx, q, date.Format(dateLayout), slotID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectTableIDs(rows)
}

func collectTableIDs(rows *sql.Rows) (map[uint64]struct{}, error) {
    occupied := make(map[uint64]struct{})
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        occupied[id] = struct{}{}
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return occupied, nil
}

const reservationColumns = `id, customer_id, reservation_date, slot_id, guests, notes, status, created_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
    var (
        res    model.Reservation
        status string
        notes  sql.NullString
    )
    err := row.Scan(&res.ID, &res.CustomerID, &res.Date, &res.SlotID,
        &res.Guests, &notes, &status, &res.CreatedAt)
    if err != nil {
        return model.Reservation{}, err
    }
    res.Status = model.ReservationStatus(status)
    if notes.Valid {
        res.Notes = notes.String
    }
    return res, nil
}

// GetByID returns a reservation with its assignments.  sql.ErrNoRows
// is returned when the id does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
    res, err := scanReservation(r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
    if err != nil {
        return model.Reservation{}, err
    }
    const q = `SELECT id, reservation_id, table_id, seats_assigned, merge_group, created_at
               FROM table_assignments WHERE reservation_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil {
        return model.Reservation{}, err
    }
    defer rows.Close()
    for rows.Next() {
        var a model.TableAssignment
        if err := rows.Scan(&a.ID, &a.ReservationID, &a.TableID, &a.SeatsAssigned, &a.MergeGroup, &a.CreatedAt); err != nil {
            return model.Reservation{}, err
        }
        res.Assignments = append(res.Assignments, a)
    }
    if err := rows.Err(); err != nil {
        return model.Reservation{}, err
    }
    return res, nil
}

// UpdateStatus moves a reservation from one status to another as a
// single optimistic write: the UPDATE only matches when the stored
// status still equals from.  When the row exists but the status moved
// underneath the caller, ErrConflict is returned; when the row does
// not exist, sql.ErrNoRows.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
    result, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
        string(to), id, string(from))
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var current string
    if err := r.db.QueryRowContext(ctx,
        `SELECT status FROM reservations WHERE id = ?`, id).Scan(&current); err != nil {
        return err // sql.ErrNoRows when the reservation is gone
    }
    return fmt.Errorf("reservation %d moved to %s: %w", id, current, ErrConflict)
}

// ListByDate returns every reservation for the given date ordered by
// the start time of its slot, with assignments populated in one
// follow-up query.
func (r *ReservationRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
    const q = `SELECT res.id, res.customer_id, res.reservation_date, res.slot_id,
                      res.guests, res.notes, res.status, res.created_at
               FROM reservations res
               JOIN slots s ON s.id = res.slot_id
               WHERE res.reservation_date = ?
               ORDER BY s.start_time, res.id`
    rows, err := r.db.QueryContext(ctx, q, date.Format(dateLayout))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return r.collectWithAssignments(ctx, rows)
}

// ListByCustomer returns a customer's reservations newest first.
func (r *ReservationRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + `
               FROM reservations
               WHERE customer_id = ?
               ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, customerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return r.collectWithAssignments(ctx, rows)
}

// collectWithAssignments scans reservation rows and then loads the
// assignments for all of them in a single IN query.
func (r *ReservationRepo) collectWithAssignments(ctx context.Context, rows *sql.Rows) ([]model.Reservation, error) {
    reservations := make([]model.Reservation, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        index[res.ID] = len(reservations)
        reservations = append(reservations, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(reservations) == 0 {
        return reservations, nil
    }

    ids := make([]interface{}, 0, len(reservations))
    placeholders := make([]string, 0, len(reservations))
    for _, res := range reservations {
        ids = append(ids, res.ID)
        placeholders = append(placeholders, "?")
    }
    q := `SELECT id, reservation_id, table_id, seats_assigned, merge_group, created_at
          FROM table_assignments
          WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY reservation_id, id`
    arows, err := r.db.QueryContext(ctx, q, ids...)
    if err != nil {
        return nil, err
    }
    defer arows.Close()
    for arows.Next() {
        var a model.TableAssignment
        if err := arows.Scan(&a.ID, &a.ReservationID, &a.TableID, &a.SeatsAssigned, &a.MergeGroup, &a.CreatedAt); err != nil {
            return nil, err
        }
        if idx, ok := index[a.ReservationID]; ok {
            reservations[idx].Assignments = append(reservations[idx].Assignments, a)
        }
    }
    if err := arows.Err(); err != nil {
        return nil, err
    }
    return reservations, nil
}
