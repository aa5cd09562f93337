package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// UserRepo persists application users.  It doubles as the customer
// directory consumed by the reservation lifecycle: ownership checks
// and notification addressing both resolve customers through GetByID.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, display_name, password_hash, role, is_active, created_at, updated_at`

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, displayName, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, display_name, password_hash, role) VALUES (?,?,?,?)",
        email, displayName, hash, role)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
        email).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role,
        &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
        id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role,
        &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}
