package profile

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/theme"
)

// LogoutMsg asks the app to end the session.
type LogoutMsg struct{}

// Model shows the logged-in account.
type Model struct {
	user   *model.User
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a profile view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetUser sets the account to display.
func (m *Model) SetUser(u *model.User) {
	m.user = u
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Logout) {
		return m, func() tea.Msg { return LogoutMsg{} }
	}
	return m, nil
}

// View renders the profile card.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Profile"))
	b.WriteString("\n\n")

	if m.user == nil {
		b.WriteString(theme.DimmedStyle.Render("Not logged in."))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	u := m.user
	email := u.Email
	if email == "" {
		email = "-"
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(u.Name),
		theme.DimmedStyle.Render(email),
		"",
		"Role    " + theme.RoleStyle(u.Role).Render(u.Role),
		"Status  " + theme.UserStatusStyle(u.Status).Render(u.Status),
	}
	if !u.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Member since %s", u.CreatedAt.Local().Format("Jan 2, 2006")))
	}
	b.WriteString(theme.CardStyle.Width(40).Render(strings.Join(lines, "\n")))

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("L log out"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
