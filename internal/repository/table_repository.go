package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides CRUD operations for the physical tables of the
// venue.  The read path used during allocation never mutates: once a
// snapshot of tables is handed to the allocation engine, seat counts
// and joinability are fixed for the duration of that request.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *TableRepo) DB() *sql.DB { return r.db }

const tableColumns = `id, number, seats, joinable, available, location, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (model.Table, error) {
    var t model.Table
    err := row.Scan(&t.ID, &t.Number, &t.Seats, &t.Joinable, &t.Available,
        &t.Location, &t.CreatedAt, &t.UpdatedAt)
    return t, err
}

// ListAvailable returns every table whose available flag is set,
// ordered by table number for deterministic output.  Tables retired
// for maintenance are excluded; tables occupied by reservations are
// not, since conflict filtering belongs to the resolver.
func (r *TableRepo) ListAvailable(ctx context.Context) ([]model.Table, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+tableColumns+` FROM tables WHERE available = 1 ORDER BY number`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tables := make([]model.Table, 0)
    for rows.Next() {
        t, err := scanTable(rows)
        if err != nil {
            return nil, err
        }
        tables = append(tables, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return tables, nil
}

// ListAll returns every table including those retired for maintenance,
// ordered by table number.  Used by the owner administration endpoints.
func (r *TableRepo) ListAll(ctx context.Context) ([]model.Table, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+tableColumns+` FROM tables ORDER BY number`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tables := make([]model.Table, 0)
    for rows.Next() {
        t, err := scanTable(rows)
        if err != nil {
            return nil, err
        }
        tables = append(tables, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return tables, nil
}

// GetByID returns a single table.  sql.ErrNoRows is returned when the
// id does not exist.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
    return scanTable(r.db.QueryRowContext(ctx,
        `SELECT `+tableColumns+` FROM tables WHERE id = ?`, id))
}

// Create inserts a new table and populates the generated ID.  A
// duplicate table number yields ErrNumberExists.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO tables (number, seats, joinable, available, location) VALUES (?, ?, ?, ?, ?)`,
        t.Number, t.Seats, t.Joinable, t.Available, t.Location)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrNumberExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// Update rewrites the mutable columns of a table.  sql.ErrNoRows is
// returned when the id does not exist; a duplicate number yields
// ErrNumberExists.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE tables SET number = ?, seats = ?, joinable = ?, location = ? WHERE id = ?`,
        t.Number, t.Seats, t.Joinable, t.Location, t.ID)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrNumberExists
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // distinguish no-op updates from missing rows
        var exists int
        if err := r.db.QueryRowContext(ctx,
            `SELECT 1 FROM tables WHERE id = ?`, t.ID).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// SetAvailability toggles the maintenance flag.  Rows are never
// deleted while referenced by an assignment; retiring a table is
// always expressed through this flag.
func (r *TableRepo) SetAvailability(ctx context.Context, id uint64, available bool) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE tables SET available = ? WHERE id = ?`, available, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists int
        if err := r.db.QueryRowContext(ctx,
            `SELECT 1 FROM tables WHERE id = ?`, id).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}
