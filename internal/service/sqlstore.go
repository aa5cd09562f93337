package service

import (
    "context"
    "fmt"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// SQLReservationStore adapts ReservationRepo to the ReservationStore
// port.  It owns the booking transaction: the conflict re-check and
// the reservation + assignment writes commit or roll back as one
// unit, so a reservation can never be persisted with only part of its
// combination.
type SQLReservationStore struct {
    Repo *repository.ReservationRepo
}

// NewSQLReservationStore wraps a ReservationRepo.
func NewSQLReservationStore(repo *repository.ReservationRepo) *SQLReservationStore {
    if repo == nil {
        panic("nil ReservationRepo passed to NewSQLReservationStore")
    }
    return &SQLReservationStore{Repo: repo}
}

// OccupiedTableIDs reads the current occupied set outside any
// transaction.  The booking path re-checks inside its transaction; this
// read feeds the candidate pool and the availability probe.
func (s *SQLReservationStore) OccupiedTableIDs(ctx context.Context, date time.Time, slotID uint64) (map[uint64]struct{}, error) {
    return s.Repo.ReservedTableIDs(ctx, date, slotID)
}

// CreateWithAssignments persists the reservation and its assignments
// in one transaction.  Inside the transaction the occupied set for the
// (date, slot) pair is re-read with FOR UPDATE; if any assigned table
// is already claimed by a competing active reservation the write is
// abandoned with repository.ErrConflict.  On success the reservation
// ID, creation timestamp and the merge group of every assignment are
// populated.
func (s *SQLReservationStore) CreateWithAssignments(ctx context.Context, res *model.Reservation) error {
    tx, err := s.Repo.DB().BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    reserved, err := s.Repo.ReservedTableIDsTx(ctx, tx, res.Date, res.SlotID)
    if err != nil {
        return err
    }
    for _, a := range res.Assignments {
        if _, taken := reserved[a.TableID]; taken {
            return fmt.Errorf("table %d already reserved: %w", a.TableID, repository.ErrConflict)
        }
    }

    if err := s.Repo.CreateTx(ctx, tx, res); err != nil {
        return err
    }
    group := MergeGroupFor(res.ID)
    for i := range res.Assignments {
        res.Assignments[i].ReservationID = res.ID
        res.Assignments[i].MergeGroup = group
    }
    if err := s.Repo.CreateAssignmentsBulkTx(ctx, tx, res.Assignments); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (s *SQLReservationStore) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
    return s.Repo.GetByID(ctx, id)
}

func (s *SQLReservationStore) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
    return s.Repo.UpdateStatus(ctx, id, from, to)
}

func (s *SQLReservationStore) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
    return s.Repo.ListByDate(ctx, date)
}

func (s *SQLReservationStore) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
    return s.Repo.ListByCustomer(ctx, customerID)
}
