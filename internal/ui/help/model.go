package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/theme"
)

// Section is one titled group of shortcuts.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Model is the help overlay listing the shortcuts of every page.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	admin  bool
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetAdmin shows or hides the user management section.
func (m *Model) SetAdmin(admin bool) {
	m.admin = admin
}

// Sections returns the shortcut groups shown for the current role.
func (m Model) Sections() []Section {
	k := m.keys
	pages := []key.Binding{k.Home, k.Lists, k.Mailer}
	if m.admin {
		pages = append(pages, k.Users)
	}
	pages = append(pages, k.Settings, k.Profile)

	out := []Section{
		{"Pages", pages},
		{"Moving around", []key.Binding{k.Up, k.Down, k.Select, k.Back}},
		{"Lists", []key.Binding{
			k.Import, k.Left, k.Right,
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit cell")),
			k.Save, k.Delete,
		}},
		{"Mail Handler", []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose list / send")),
			key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit template")),
			key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "change field mapping")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel sending")),
		}},
	}
	if m.admin {
		out = append(out, Section{"Users", []key.Binding{k.New, k.Edit, k.Delete, k.NextTab}})
	}
	return append(out, Section{"General", []key.Binding{k.Command, k.Help, k.Logout, k.Quit}})
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the app closes the overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders every section as a heading over a one-line key list.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCyan)

	parts := []string{theme.TitleStyle.Render("List Mailer shortcuts")}
	for _, s := range m.Sections() {
		parts = append(parts,
			heading.Render(s.Title),
			m.help.ShortHelpView(s.Bindings),
			"",
		)
	}
	parts = append(parts, theme.HelpStyle.Render("Press ? or esc to close."))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 8
}
