package login

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/auth"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/theme"
)

// LoggedInMsg is emitted after a successful login.
type LoggedInMsg struct {
	User model.User
}

// QuitMsg is emitted when the login form is aborted.
type QuitMsg struct{}

type loginResultMsg struct {
	user *model.User
	err  error
}

type formBindings struct {
	name     string
	password string
}

// Model is the login gate shown before any other page.
type Model struct {
	auth      *auth.Service
	form      *huh.Form
	fb        *formBindings
	busy      bool
	statusMsg string
	width     int
	height    int
}

// New creates a login view.
func New(a *auth.Service, width, height int) Model {
	m := Model{
		auth:   a,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the form for the next login.
func (m *Model) Reset() tea.Cmd {
	m.fb.name = ""
	m.fb.password = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User ID").
				Placeholder("admin").
				Value(&m.fb.name).
				Validate(huh.ValidateNotEmpty()),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		).Title("Welcome Back"),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.statusMsg = loginError(msg.err)
			cmd := m.Reset()
			return m, cmd
		}
		m.statusMsg = ""
		user := *msg.user
		return m, func() tea.Msg { return LoggedInMsg{User: user} }
	}

	if m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		return m, m.login(m.fb.name, m.fb.password)
	case huh.StateAborted:
		return m, func() tea.Msg { return QuitMsg{} }
	}
	return m, cmd
}

func loginError(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrInactiveUser):
		return "Your account is inactive. Contact your admin."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (m Model) login(name, password string) tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		u, err := a.Login(context.Background(), name, password)
		return loginResultMsg{user: u, err: err}
	}
}

// View renders the login box centered on screen.
func (m Model) View() string {
	content := m.form.View()
	if m.busy {
		content = theme.DimmedStyle.Render("Signing in...")
	}
	if m.statusMsg != "" {
		content += "\n" + theme.ErrorStyle.Render(m.statusMsg)
	}
	content += "\n" + theme.HelpStyle.Render("Forgot password? Contact your admin.")

	box := theme.BorderStyle.Padding(1, 3).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 36 {
		w = 36
	}
	if w > 60 {
		w = 60
	}
	return w
}
