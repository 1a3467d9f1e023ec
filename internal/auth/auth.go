// Package auth gates the dashboard behind a bcrypt-checked login and keeps
// the user administration audited.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
)

// Seeded administrator, created on first run.
const (
	DefaultAdminName     = "admin"
	DefaultAdminPassword = "admin"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveUser is returned when an inactive account tries to log in.
	ErrInactiveUser = errors.New("account is inactive, contact your admin")

	// ErrPasswordRequired is returned when a new user has no password.
	ErrPasswordRequired = errors.New("password must not be empty")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service logs users in and out and manages accounts.
type Service struct {
	store   store.Store
	session *store.Session
	logger  *zap.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(st store.Store, session *store.Session, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, session: session, logger: logger}
}

// EnsureAdmin seeds the default administrator when no user exists yet.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := HashPassword(DefaultAdminPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateUser(ctx, model.User{
		Name:         DefaultAdminName,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
		PasswordHash: hash,
	}); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	s.logger.Info("seeded default administrator", zap.String("name", DefaultAdminName))
	return nil
}

// Login checks the credentials and records the session.
func (s *Service) Login(ctx context.Context, name, password string) (*model.User, error) {
	u, err := s.store.GetUserByName(ctx, name)
	if errors.Is(err, store.ErrUserNotFound) {
		s.logger.Info("login failed", zap.String("name", name))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(u.PasswordHash, password) {
		s.logger.Info("login failed", zap.String("name", name))
		return nil, ErrInvalidCredentials
	}
	if u.Status != model.UserStatusActive {
		return nil, ErrInactiveUser
	}

	if err := s.session.Save(ctx, *u); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", zap.String("user", u.Name))
	return u, nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// Current returns the logged-in user, or nil.
func (s *Service) Current(ctx context.Context) (*model.User, error) {
	return s.session.Load(ctx)
}

// UserInput is the editable part of an account.
type UserInput struct {
	Name     string
	Email    string
	Status   string
	Role     string
	Password string
}

// CreateUser adds an account and records it in the activity log.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (model.User, error) {
	if in.Password == "" {
		return model.User{}, ErrPasswordRequired
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.store.CreateUser(ctx, model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Role:         in.Role,
		Status:       in.Status,
		PasswordHash: hash,
	})
	if err != nil {
		return model.User{}, err
	}

	s.audit(ctx, "Created user "+u.Name)
	return u, nil
}

// UpdateUser edits an account. An empty password keeps the current one.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserInput) error {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	u.Name = strings.TrimSpace(in.Name)
	u.Email = strings.TrimSpace(in.Email)
	if in.Status != "" {
		u.Status = in.Status
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	u.PasswordHash = ""
	if in.Password != "" {
		if u.PasswordHash, err = HashPassword(in.Password); err != nil {
			return err
		}
	}

	if err := s.store.UpdateUser(ctx, *u); err != nil {
		return err
	}

	s.audit(ctx, "Updated user "+u.Name)
	return nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, "Deleted user "+u.Name)
	return nil
}

// audit records action; a failure is logged rather than returned because
// the account change already happened.
func (s *Service) audit(ctx context.Context, action string) {
	if err := s.store.AddAuditEntry(ctx, action); err != nil {
		s.logger.Warn("writing audit entry", zap.String("action", action), zap.Error(err))
	}
}
