package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/sync"
	"github.com/nhle/listmailer/internal/ui"
	"github.com/nhle/listmailer/internal/ui/command"
	helpview "github.com/nhle/listmailer/internal/ui/help"
	"github.com/nhle/listmailer/internal/ui/home"
	"github.com/nhle/listmailer/internal/ui/lists"
	"github.com/nhle/listmailer/internal/ui/login"
	"github.com/nhle/listmailer/internal/ui/mailer"
	"github.com/nhle/listmailer/internal/ui/profile"
	"github.com/nhle/listmailer/internal/ui/settings"
	"github.com/nhle/listmailer/internal/ui/users"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewHome
	ViewLists
	ViewMailer
	ViewUsers
	ViewSettings
	ViewProfile
	ViewHelp
	ViewCommand
)

// sessionLoadedMsg carries the user restored from the session key.
type sessionLoadedMsg struct {
	user *model.User
	err  error
}

type loggedOutMsg struct{ err error }

// Model is the root Bubble Tea model that manages view routing,
// layout and the login gate.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          *Services
	keys         *keys.KeyMap
	user         *model.User

	loginView    login.Model
	homeView     home.Model
	listsView    lists.Model
	mailerView   mailer.Model
	usersView    users.Model
	settingsView settings.Model
	profileView  profile.Model
	helpView     helpview.Model
	commandView  command.Model

	ready     bool
	statusMsg string
}

// New creates a new root application model over svc.
func New(svc *Services) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewLogin,
		svc:          svc,
		keys:         k,
		loginView:    login.New(svc.Auth, 80, 24),
		homeView:     home.New(svc.Lists, svc.Store, 80, 24),
		listsView:    lists.New(svc.Lists, svc.Blocked, svc.PhaseDuration(), k, 80, 24),
		mailerView:   mailer.New(svc.Lists, svc.Engine, k, 80, 24),
		usersView:    users.New(svc.Store, svc.Auth, k, 80, 24),
		settingsView: settings.New(svc.Config, svc.ConfigPath, k, 80, 24),
		profileView:  profile.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
	}
}

// Init restores the session, falling back to the login form.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loginView.Init(), m.restoreSession())
}

func (m Model) restoreSession() tea.Cmd {
	a := m.svc.Auth
	return func() tea.Msg {
		u, err := a.Current(context.Background())
		return sessionLoadedMsg{user: u, err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.loginView.SetSize(msg.Width, msg.Height)
		m.homeView.SetSize(w, h)
		m.listsView.SetSize(w, h)
		m.mailerView.SetSize(w, h)
		m.usersView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.profileView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionLoadedMsg:
		if msg.err != nil {
			m.svc.Logger.Warn("restoring session", zap.Error(msg.err))
		}
		if msg.user == nil {
			return m, nil
		}
		return m.enter(*msg.user)

	case login.LoggedInMsg:
		m.svc.Logger.Info("user logged in", zap.String("user", msg.User.Name))
		return m.enter(msg.User)

	case login.QuitMsg:
		return m, tea.Quit

	case profile.LogoutMsg:
		return m, m.logout()

	case loggedOutMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.setUser(nil)
		m.currentView = ViewLogin
		cmd := m.loginView.Reset()
		return m, cmd

	case lists.ListsChangedMsg:
		m.mailerView.Reset()
		return m, m.homeView.Refresh()

	case users.UsersChangedMsg:
		return m, tea.Batch(m.homeView.Refresh(), m.refreshUser())

	case sessionRefreshedMsg:
		if msg.user != nil {
			m.setUser(msg.user)
		}
		return m, nil

	case settings.SavedMsg:
		if err := m.svc.Reconfigure(msg.Config); err != nil {
			m.statusMsg = fmt.Sprintf("Mail transport not changed: %v", err)
		} else {
			m.mailerView.SetEngine(m.svc.Engine)
			m.listsView.SetFilter(m.svc.Blocked, m.svc.PhaseDuration())
			m.statusMsg = ""
		}
		return m.updateActiveView(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == ViewLogin || m.capturing() {
			break
		}
		m.statusMsg = ""
		if mdl, cmd, ok := m.handleGlobalKey(msg); ok {
			return mdl, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturing reports whether the active view is consuming keystrokes, e.g.
// a form is open, so global shortcuts must not fire.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewLists:
		return m.listsView.Capturing()
	case ViewMailer:
		return m.mailerView.Capturing()
	case ViewUsers:
		return m.usersView.Capturing()
	case ViewSettings:
		return m.settingsView.Capturing()
	case ViewCommand:
		return true
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Logout):
		return m, m.logout(), true
	}

	for _, p := range m.pages() {
		if key.Matches(msg, p.binding) {
			mdl, cmd := m.navigate(p.view)
			return mdl, cmd, true
		}
	}
	return m, nil, false
}

type page struct {
	view    ViewState
	binding key.Binding
	label   string
}

// pages lists the tabs available to the current user.
func (m Model) pages() []page {
	ps := []page{
		{ViewHome, m.keys.Home, "Home"},
		{ViewLists, m.keys.Lists, "Lists"},
		{ViewMailer, m.keys.Mailer, "Mail Handler"},
	}
	if m.user != nil && m.user.IsAdmin() {
		ps = append(ps, page{ViewUsers, m.keys.Users, "Users"})
	}
	return append(ps,
		page{ViewSettings, m.keys.Settings, "Settings"},
		page{ViewProfile, m.keys.Profile, "Profile"},
	)
}

// navigate switches to a page, loading its data.
func (m Model) navigate(v ViewState) (tea.Model, tea.Cmd) {
	if m.user == nil {
		return m, nil
	}
	if v == ViewUsers && !m.user.IsAdmin() {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = v
	switch v {
	case ViewHome:
		return m, m.homeView.Refresh()
	case ViewUsers:
		return m, m.usersView.Init()
	}
	return m, nil
}

func (m Model) enter(u model.User) (tea.Model, tea.Cmd) {
	m.setUser(&u)
	m.statusMsg = ""
	m.currentView = ViewHome
	m.previousView = ViewHome
	return m, tea.Batch(m.homeView.Refresh(), m.usersView.Init())
}

func (m *Model) setUser(u *model.User) {
	m.user = u
	m.usersView.SetCurrent(u)
	m.profileView.SetUser(u)
	m.helpView.SetAdmin(u != nil && u.IsAdmin())
}

type sessionRefreshedMsg struct{ user *model.User }

// refreshUser reloads the logged-in account after user edits.
func (m Model) refreshUser() tea.Cmd {
	a := m.svc.Auth
	return func() tea.Msg {
		u, _ := a.Current(context.Background())
		return sessionRefreshedMsg{user: u}
	}
}

func (m Model) logout() tea.Cmd {
	a := m.svc.Auth
	return func() tea.Msg {
		return loggedOutMsg{err: a.Logout(context.Background())}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewHome:
		m.homeView, cmd = m.homeView.Update(msg)
	case ViewLists:
		m.listsView, cmd = m.listsView.Update(msg)
	case ViewMailer:
		m.mailerView, cmd = m.mailerView.Update(msg)
	case ViewUsers:
		m.usersView, cmd = m.usersView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, routeBackground(msg, &m, cmd)
}

// routeBackground keeps import and send runs alive while their view is
// not active: their progress messages must reach the owning view.
func routeBackground(msg tea.Msg, m *Model, cmd tea.Cmd) tea.Cmd {
	if isImportMsg(msg) && m.currentView != ViewLists {
		var c tea.Cmd
		m.listsView, c = m.listsView.Update(msg)
		return tea.Batch(cmd, c)
	}
	if isMergeMsg(msg) && m.currentView != ViewMailer {
		var c tea.Cmd
		m.mailerView, c = m.mailerView.Update(msg)
		return tea.Batch(cmd, c)
	}
	return cmd
}

func isImportMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case sync.ImportProgressMsg, sync.ImportDoneMsg:
		return true
	}
	return false
}

func isMergeMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case sync.MergeProgressMsg, sync.MergeDoneMsg:
		return true
	}
	return false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	header := m.layout.RenderHeader("List Mailer", m.userStatus())
	tabs := m.layout.RenderTabs(m.tabs(), m.activeTab())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, tabs, content, statusBar)
}

func (m Model) tabs() []ui.Tab {
	ps := m.pages()
	out := make([]ui.Tab, len(ps))
	for i, p := range ps {
		out[i] = ui.Tab{Key: p.binding.Help().Key, Label: p.label}
	}
	return out
}

func (m Model) activeTab() int {
	v := m.currentView
	if v == ViewHelp || v == ViewCommand {
		v = m.previousView
	}
	for i, p := range m.pages() {
		if p.view == v {
			return i
		}
	}
	return -1
}

func (m Model) userStatus() string {
	if m.user == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", m.user.Name, strings.ToLower(m.user.Role))
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHome:
		return m.homeView.View()
	case ViewLists:
		return m.listsView.View()
	case ViewMailer:
		return m.mailerView.View()
	case ViewUsers:
		return m.usersView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	}
	if m.capturing() {
		return "enter confirm | esc cancel"
	}
	return "1-6 pages | : command | ? help | L log out | q quit"
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "quit", "q":
		return m, tea.Quit
	case "home", "dashboard":
		return m.navigate(ViewHome)
	case "lists":
		return m.navigate(ViewLists)
	case "import":
		mdl, _ := m.navigate(ViewLists)
		m = mdl.(Model)
		var c tea.Cmd
		m.listsView, c = m.listsView.StartImport()
		return m, c
	case "mailer", "send", "mail":
		return m.navigate(ViewMailer)
	case "users":
		return m.navigate(ViewUsers)
	case "settings", "config":
		return m.navigate(ViewSettings)
	case "profile":
		return m.navigate(ViewProfile)
	case "logout":
		return m, m.logout()
	default:
		m.statusMsg = fmt.Sprintf("Unknown command %q", cmd)
		return m, nil
	}
}
