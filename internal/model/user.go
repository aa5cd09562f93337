package model

import "time"

// Role names stored in users.role.  CUSTOMER accounts book for
// themselves; STAFF and OWNER hold the capability to cancel any
// reservation and to drive status transitions at the door.
const (
    RoleCustomer = "CUSTOMER"
    RoleStaff    = "STAFF"
    RoleOwner    = "OWNER"
)

// StaffCapability reports whether the role may act on reservations it
// does not own.
func StaffCapability(role string) bool {
    return role == RoleStaff || role == RoleOwner
}

// User represents an application user record as stored in the `users`
// table.  Handlers define separate response types with JSON tags; this
// struct is used by the repository layer only.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  DisplayName  – name shown on reservations and notifications.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (CUSTOMER, STAFF or OWNER).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    DisplayName  string    // users.display_name
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA-256 hash of the raw token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
