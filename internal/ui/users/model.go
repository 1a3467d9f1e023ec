package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/auth"
	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
	"github.com/nhle/listmailer/internal/theme"
)

// UsersChangedMsg signals that accounts were modified.
type UsersChangedMsg struct{}

type userMode int

const (
	modeList userMode = iota
	modeLogs
	modeForm
	modeConfirmDelete
)

const logLimit = 50

type formBindings struct {
	name     string
	email    string
	role     string
	status   string
	password string
	confirm  bool
}

type usersLoadedMsg struct {
	users []model.User
	logs  []model.AuditEntry
	err   error
}

type userSavedMsg struct{ err error }
type userDeletedMsg struct{ err error }

// Model is the admin panel for dashboard accounts.
type Model struct {
	mode        userMode
	store       store.Store
	auth        *auth.Service
	keys        *keys.KeyMap
	current     *model.User
	users       []model.User
	logs        []model.AuditEntry
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a users view.
func New(s store.Store, a *auth.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		auth:  a,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads users and the activity log.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// SetCurrent sets the logged-in user. Only admins may change accounts.
func (m *Model) SetCurrent(u *model.User) {
	m.current = u
	m.mode = modeList
	m.statusMsg = ""
}

// Capturing reports whether the view is consuming keystrokes.
func (m Model) Capturing() bool {
	return m.mode == modeForm || m.mode == modeConfirmDelete
}

func (m Model) allowed() bool {
	return m.current != nil && m.current.IsAdmin()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.users = msg.users
		m.logs = msg.logs
		if m.selectedIdx >= len(m.users) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.users) - 1
		}
		return m, nil

	case userSavedMsg:
		if msg.err != nil {
			m.statusMsg = saveError(msg.err)
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.statusMsg = "User saved"
		m.mode = modeList
		return m, tea.Batch(m.load(), changed)

	case userDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "User deleted"
		}
		m.mode = modeList
		return m, tea.Batch(m.load(), changed)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func changed() tea.Msg { return UsersChangedMsg{} }

func saveError(err error) string {
	if errors.Is(err, auth.ErrPasswordRequired) {
		return "A password is required for new users"
	}
	return fmt.Sprintf("Error: %v", err)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList, modeLogs:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.NextTab) {
		if m.mode == modeList {
			m.mode = modeLogs
		} else {
			m.mode = modeList
		}
		return m, m.load()
	}
	if m.mode == modeLogs || !m.allowed() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.users) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.isNew = true
		m.editingID = ""
		*m.fb = formBindings{role: model.RoleUser, status: model.UserStatusActive}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.users) == 0 {
			return m, nil
		}
		u := m.users[m.selectedIdx]
		m.isNew = false
		m.editingID = u.ID
		*m.fb = formBindings{name: u.Name, email: u.Email, role: u.Role, status: u.Status}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.users) == 0 {
			return m, nil
		}
		if m.users[m.selectedIdx].ID == m.current.ID {
			m.statusMsg = "You cannot delete your own account"
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	pwTitle := "Password"
	if !m.isNew {
		pwTitle = "New password (leave empty to keep)"
	}
	title := "New user"
	if !m.isNew {
		title = "Edit user"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email),
			huh.NewSelect[string]().
				Title("Role").
				Options(huh.NewOptions(model.RoleUser, model.RoleAdmin)...).
				Value(&m.fb.role),
			huh.NewSelect[string]().
				Title("Status").
				Options(huh.NewOptions(model.UserStatusActive, model.UserStatusInactive)...).
				Value(&m.fb.status),
			huh.NewInput().
				Title(pwTitle).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		).Title(title),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.users) {
		name = m.users[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete user %q?", name)).
				Description("The account will no longer be able to log in.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		cmd := m.saveUser()
		m.form = nil
		return m, cmd
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.deleteUser(m.users[m.selectedIdx].ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the users view.
func (m Model) View() string {
	if !m.allowed() {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.ErrorStyle.Render("Access denied") + "\n\n" +
				theme.DimmedStyle.Render("Only administrators can manage users."))
	}
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	case modeLogs:
		return m.viewLogs()
	default:
		return m.viewList()
	}
}

func (m Model) tabBar() string {
	users, logs := theme.ListItemStyle, theme.ListItemStyle
	if m.mode == modeLogs {
		logs = theme.SelectedItemStyle
	} else {
		users = theme.SelectedItemStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, users.Render("Users"), " ", logs.Render("Logs"))
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No users yet. Press 'n' to create one."))
	} else {
		for i, u := range m.users {
			label := fmt.Sprintf("%-20s %-28s %s %s",
				u.Name, u.Email,
				theme.RoleStyle(u.Role).Render(fmt.Sprintf("%-6s", u.Role)),
				theme.UserStatusStyle(u.Status).Render(u.Status))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n new | e edit | d delete | tab logs"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) viewLogs() string {
	var b strings.Builder

	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	if len(m.logs) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No activity yet."))
	}
	for _, e := range m.logs {
		b.WriteString(theme.DimmedStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")))
		b.WriteString("  ")
		b.WriteString(e.Action)
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("tab users"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	out := f.View()
	if m.statusMsg != "" {
		out += "\n" + theme.StatusMsgStyle.Render(m.statusMsg)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(out)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		users, err := s.GetUsers(ctx)
		if err != nil {
			return usersLoadedMsg{err: err}
		}
		logs, err := s.GetAuditLog(ctx, logLimit)
		if err != nil {
			return usersLoadedMsg{err: err}
		}
		return usersLoadedMsg{users: users, logs: logs}
	}
}

func (m Model) saveUser() tea.Cmd {
	a := m.auth
	in := auth.UserInput{
		Name:     m.fb.name,
		Email:    m.fb.email,
		Role:     m.fb.role,
		Status:   m.fb.status,
		Password: m.fb.password,
	}
	editID := m.editingID
	isNew := m.isNew
	return func() tea.Msg {
		if isNew {
			_, err := a.CreateUser(context.Background(), in)
			return userSavedMsg{err: err}
		}
		return userSavedMsg{err: a.UpdateUser(context.Background(), editID, in)}
	}
}

func (m Model) deleteUser(id string) tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		return userDeletedMsg{err: a.DeleteUser(context.Background(), id)}
	}
}
