package model

import "time"

// User roles.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User statuses.
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// User is a dashboard account managed from the admin panel.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user may manage other users.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Identity is the logged-in user as kept in the session key.
type Identity struct {
	UserID string `json:"userId"`
}

// AuditEntry is one line of the admin activity log.
type AuditEntry struct {
	ID        string    `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
