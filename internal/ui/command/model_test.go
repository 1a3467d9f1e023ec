package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatching(t *testing.T) {
	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"home", "lists", "import", "send", "users", "settings", "profile", "logout", "quit"}},
		{"l", []string{"lists", "logout"}},
		{" SE ", []string{"send", "settings"}},
		{"x", nil},
	}
	for _, tt := range tests {
		var got []string
		for _, c := range Matching(tt.prefix) {
			got = append(got, c.Name)
		}
		assert.Equal(t, tt.want, got, "prefix %q", tt.prefix)
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestUpdate_EnterEmitsCommand(t *testing.T) {
	m := typeText(New(80, 24), " lists ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("lists"), cmd())
	assert.Empty(t, m.input.Value())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestView_FiltersCommands(t *testing.T) {
	m := typeText(New(80, 24), "se")
	out := m.View()
	assert.Contains(t, out, "run a mail merge")
	assert.NotContains(t, out, "end the session")

	m = typeText(New(80, 24), "zz")
	assert.Contains(t, m.View(), "No matching command.")
}
