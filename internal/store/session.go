package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/listmailer/internal/model"
)

// Session persists the logged-in identity under the "user" key.
type Session struct {
	store Store
}

// NewSession returns a Session backed by st.
func NewSession(st Store) *Session {
	return &Session{store: st}
}

// Load returns the logged-in user, or nil when nobody is logged in. A
// session pointing at a deleted user is cleared.
func (s *Session) Load(ctx context.Context) (*model.User, error) {
	raw, ok, err := s.store.Get(ctx, KeySession)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.UserID == "" {
		return nil, s.Clear(ctx)
	}

	u, err := s.store.GetUserByID(ctx, id.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, s.Clear(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return u, nil
}

// Save records user as logged in.
func (s *Session) Save(ctx context.Context, user model.User) error {
	raw, err := json.Marshal(model.Identity{UserID: user.ID})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.store.Set(ctx, KeySession, string(raw)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear logs out.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
