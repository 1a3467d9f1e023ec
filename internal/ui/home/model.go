package home

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/store"
	"github.com/nhle/listmailer/internal/theme"
)

// Stats are the dashboard counters.
type Stats struct {
	Lists      int
	Records    int
	Duplicates int
	Blocked    int
	Users      int
	Templates  int
}

type statsLoadedMsg struct {
	stats Stats
	err   error
}

// Model is the dashboard landing page.
type Model struct {
	lists  *store.ListStore
	store  store.Store
	stats  Stats
	err    error
	width  int
	height int
}

// New creates a home view.
func New(lists *store.ListStore, s store.Store, width, height int) Model {
	return Model{lists: lists, store: s, width: width, height: height}
}

// Init loads the counters.
func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads the counters.
func (m Model) Refresh() tea.Cmd {
	lists := m.lists
	s := m.store
	return func() tea.Msg {
		st, err := Collect(context.Background(), lists, s)
		return statsLoadedMsg{stats: st, err: err}
	}
}

// Collect computes the dashboard counters.
func Collect(ctx context.Context, lists *store.ListStore, s store.Store) (Stats, error) {
	st := Stats{Templates: len(merge.Catalog())}
	for _, l := range lists.All() {
		st.Lists++
		st.Records += len(l.Data)
		st.Duplicates += len(l.Duplicates)
		st.Blocked += len(l.Blocked)
	}
	n, err := s.CountUsers(ctx)
	if err != nil {
		return st, err
	}
	st.Users = n
	return st, nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		m.stats = msg.stats
		m.err = msg.err
	}
	return m, nil
}

// View renders the counters as cards.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Dashboard"))
	b.WriteString("\n")

	cards := []string{
		card("Saved lists", m.stats.Lists),
		card("Recipients", m.stats.Records),
		card("Duplicates removed", m.stats.Duplicates),
		card("Blocked removed", m.stats.Blocked),
		card("Templates", m.stats.Templates),
		card("Users", m.stats.Users),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...))

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("2 lists | 3 mail handler | 5 settings | ? help"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func card(label string, n int) string {
	value := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCyan).Render(fmt.Sprintf("%d", n))
	return theme.CardStyle.Width(22).Render(value + "\n" + theme.DimmedStyle.Render(label))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
