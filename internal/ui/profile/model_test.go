package profile

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/model"
)

func TestViewShowsUser(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	assert.Contains(t, m.View(), "Not logged in.")

	m.SetUser(&model.User{Name: "ann", Email: "ann@x.com", Role: model.RoleAdmin, Status: model.UserStatusActive})
	v := m.View()
	assert.Contains(t, v, "ann@x.com")
	assert.Contains(t, v, model.RoleAdmin)
}

func TestLogoutKey(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'L'}})
	require.NotNil(t, cmd)
	assert.Equal(t, LogoutMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Nil(t, cmd)
}
