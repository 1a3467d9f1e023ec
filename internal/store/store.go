package store

import (
	"context"
	"errors"

	"github.com/nhle/listmailer/internal/model"
)

// Keys of the kv table.
const (
	KeySavedLists = "mySavedLists"
	KeySession    = "user"
)

var (
	// ErrEmptyListName is returned when a list is saved without a name.
	ErrEmptyListName = errors.New("list name must not be empty")

	// ErrDuplicateListName is returned when a list name is already taken.
	ErrDuplicateListName = errors.New("a list with this name already exists")

	// ErrListNotFound is returned for an index or name that matches no list.
	ErrListNotFound = errors.New("list not found")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)

// KV is a durable string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store defines the persistence interface for the key-value data, dashboard
// users and the admin activity log.
type Store interface {
	KV

	// === Users ===

	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id string) error
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)

	// === Audit log ===

	AddAuditEntry(ctx context.Context, action string) error
	GetAuditLog(ctx context.Context, limit int) ([]model.AuditEntry, error)

	Close() error
}
