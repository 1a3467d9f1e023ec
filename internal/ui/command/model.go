package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Command is one entry of the palette.
type Command struct {
	Name        string
	Description string
}

// Commands lists what the palette understands, in display order.
var Commands = []Command{
	{"home", "dashboard counts"},
	{"lists", "saved lists"},
	{"import", "import a .csv file"},
	{"send", "run a mail merge"},
	{"users", "manage accounts (admin)"},
	{"settings", "preferences and mail server"},
	{"profile", "your account"},
	{"logout", "end the session"},
	{"quit", "leave listmailer"},
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab completes"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(names())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

func names() []string {
	out := make([]string, len(Commands))
	for i, c := range Commands {
		out[i] = c.Name
	}
	return out
}

// Matching returns the commands whose name starts with prefix.
func Matching(prefix string) []Command {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		cmd := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if cmd == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return CommandMsg(cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input above the commands matching what was typed.
func (m Model) View() string {
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Width(10)

	lines := []string{theme.TitleStyle.Render("Run a command"), m.input.View(), ""}
	matches := Matching(m.input.Value())
	if len(matches) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("No matching command."))
	}
	for _, c := range matches {
		lines = append(lines, nameStyle.Render(c.Name)+theme.HelpStyle.Render(c.Description))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
