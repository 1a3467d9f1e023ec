package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/listmailer/internal/model"
)

// CreateUser inserts a new user and returns it with ID and timestamps set.
func (s *SQLiteStore) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return model.User{}, fmt.Errorf("user name must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, role, status, password_hash, created_at, updated_at)
		VALUES (:id, :name, :email, :role, :status, :password_hash, :created_at, :updated_at)`,
		user,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", user.Name, err)
	}
	return user, nil
}

// UpdateUser updates a user's profile fields. The password hash is only
// replaced when non-empty.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user model.User) error {
	if strings.TrimSpace(user.Name) == "" {
		return fmt.Errorf("user name must not be empty")
	}
	user.UpdatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE users SET
			name = :name, email = :email, role = :role, status = :status,
			password_hash = CASE WHEN :password_hash = '' THEN password_hash ELSE :password_hash END,
			updated_at = :updated_at
		WHERE id = :id`,
		user,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating user %s: %w", user.ID, ErrUserNotFound)
	}
	return nil
}

// DeleteUser removes a user.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting user %s: %w", id, ErrUserNotFound)
	}
	return nil
}

// GetUsers returns all users ordered by creation time.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}

// GetUserByID returns the user with the given id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "SELECT * FROM users WHERE id = ?", id)
}

// GetUserByName looks a user up by name, ignoring case.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	return s.getUser(ctx, "SELECT * FROM users WHERE name = ? COLLATE NOCASE", strings.TrimSpace(name))
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up %q: %w", arg, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", arg, err)
	}
	return &u, nil
}

// CountUsers returns the number of users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// AddAuditEntry appends an action to the activity log.
func (s *SQLiteStore) AddAuditEntry(ctx context.Context, action string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_log (id, action, created_at) VALUES (?, ?, ?)",
		uuid.New().String(), action, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding audit entry: %w", err)
	}
	return nil
}

// GetAuditLog returns the most recent entries first. A limit <= 0 returns
// every entry.
func (s *SQLiteStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	query := "SELECT * FROM audit_log ORDER BY rowid DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []model.AuditEntry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	return entries, nil
}
