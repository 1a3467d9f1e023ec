package lists

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/csvimport"
	"github.com/nhle/listmailer/internal/filter"
	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/listimport"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/progress"
	"github.com/nhle/listmailer/internal/store"
	"github.com/nhle/listmailer/internal/sync"
	"github.com/nhle/listmailer/internal/theme"
)

// ListsChangedMsg signals that a list was created, edited or deleted.
type ListsChangedMsg struct{}

type listMode int

const (
	modeList listMode = iota
	modePicker
	modeImporting
	modeTable
	modeCellForm
	modeName
	modeConfirmDelete
)

type formBindings struct {
	name    string
	cell    string
	confirm bool
}

type importParsedMsg struct {
	pending *listimport.Pending
	err     error
}

type listSavedMsg struct {
	name string
	err  error
}

type listDeletedMsg struct{ err error }

// Model manages saved lists: import, preview, cell edits and deletion.
type Model struct {
	mode    listMode
	lists   *store.ListStore
	blocked filter.BlockedSet
	phase   time.Duration
	keys    *keys.KeyMap

	selectedIdx int

	picker filepicker.Model

	task     *progress.Task
	bar      bprogress.Model
	percent  int
	label    string
	imported *listimport.Pending

	// work is the list being previewed or edited. editIdx is -1 for a
	// fresh import that has not been saved yet.
	work    model.List
	headers []string
	editIdx int
	dirty   bool
	col     int
	grid    table.Model

	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a lists view. phase is the duration of each import
// progress phase.
func New(
	lists *store.ListStore,
	blocked filter.BlockedSet,
	phase time.Duration,
	k *keys.KeyMap,
	width, height int,
) Model {
	return Model{
		mode:    modeList,
		lists:   lists,
		blocked: blocked,
		phase:   phase,
		keys:    k,
		bar:     bprogress.New(bprogress.WithDefaultGradient()),
		editIdx: -1,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Init is a no-op; lists are loaded by the app at startup.
func (m Model) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming keystrokes.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

// SetFilter replaces the blocked addresses and phase duration used by the
// next import.
func (m *Model) SetFilter(blocked filter.BlockedSet, phase time.Duration) {
	m.blocked = blocked
	m.phase = phase
}

// StartImport opens the file picker.
func (m Model) StartImport() (Model, tea.Cmd) {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv"}
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}
	fp.Height = m.tableHeight()
	m.picker = fp
	m.statusMsg = ""
	m.mode = modePicker
	return m, m.picker.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importParsedMsg:
		if msg.err != nil {
			m.statusMsg = importError(msg.err)
			m.mode = modeList
			return m, nil
		}
		m.imported = msg.pending
		m.percent = 0
		m.label = ""
		m.task = progress.Run(context.Background(), progress.CSVPhases(m.phase))
		m.mode = modeImporting
		return m, sync.WaitForImport(m.task)

	case sync.ImportProgressMsg:
		if msg.Task != m.task {
			return m, nil
		}
		m.percent = msg.Event.Percent
		m.label = msg.Event.Label
		return m, sync.WaitForImport(m.task)

	case sync.ImportDoneMsg:
		if msg.Task != m.task {
			return m, nil
		}
		m.task = nil
		if msg.Err != nil {
			m.imported = nil
			m.statusMsg = "Import cancelled"
			m.mode = modeList
			return m, nil
		}
		p := m.imported
		m.imported = nil
		m.openWork(model.List{
			Data:       p.Records,
			Duplicates: p.Duplicates,
			Blocked:    p.Blocked,
		}, p.Display, -1)
		m.dirty = true
		m.statusMsg = fmt.Sprintf("Imported %d records. Press s to save the list.", len(p.Records))
		return m, nil

	case listSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			m.mode = modeTable
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("List %q saved", msg.name)
		m.mode = modeList
		m.dirty = false
		if m.editIdx < 0 {
			m.selectedIdx = m.lists.Len() - 1
		}
		return m, changed

	case listDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "List deleted"
		}
		if n := m.lists.Len(); m.selectedIdx >= n && m.selectedIdx > 0 {
			m.selectedIdx = n - 1
		}
		m.mode = modeList
		return m, changed

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActive(msg)
}

func changed() tea.Msg { return ListsChangedMsg{} }

func importError(err error) string {
	switch {
	case errors.Is(err, csvimport.ErrNotCSV):
		return "Please select a valid .csv file"
	case errors.Is(err, csvimport.ErrNoEmailColumn):
		return "No 'Email' column found in the file"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modePicker:
		return m.handlePickerKey(msg)
	case modeImporting:
		if key.Matches(msg, m.keys.Back) && m.task != nil {
			m.task.Cancel()
		}
		return m, nil
	case modeTable:
		return m.handleTableKey(msg)
	}
	return m.updateActive(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := m.lists.Len()
	switch {
	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = n - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Import):
		return m.StartImport()

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Edit):
		if n == 0 {
			return m, nil
		}
		pv, err := m.lists.Preview(m.selectedIdx)
		if err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		m.openWork(model.List{
			Name:       pv.Name,
			Data:       pv.Records,
			Duplicates: pv.Duplicates,
			Blocked:    pv.Blocked,
		}, pv.Headers, m.selectedIdx)
		m.statusMsg = ""
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if n == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		blocked := m.blocked
		return m, func() tea.Msg {
			p, err := listimport.File(path, blocked)
			return importParsedMsg{pending: p, err: err}
		}
	}
	if ok, _ := m.picker.DidSelectDisabledFile(msg); ok {
		m.statusMsg = importError(csvimport.ErrNotCSV)
		return m, cmd
	}
	return m, cmd
}

func (m Model) handleTableKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.editIdx < 0 {
			m.statusMsg = "Import discarded"
		} else if m.dirty {
			m.statusMsg = "Changes discarded"
		}
		m.mode = modeList
		m.dirty = false
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.grid.SetColumns(Columns(m.headers, m.work.Data, m.col))
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.headers)-1 {
			m.col++
			m.grid.SetColumns(Columns(m.headers, m.work.Data, m.col))
		}
		return m, nil

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Edit):
		if len(m.work.Data) == 0 || len(m.headers) == 0 {
			return m, nil
		}
		m.fb.cell = m.work.Data[m.grid.Cursor()].Value(m.headers[m.col])
		m.form = m.buildCellForm()
		m.mode = modeCellForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Save):
		m.fb.name = m.work.Name
		m.form = m.buildNameForm()
		m.mode = modeName
		return m, m.form.Init()
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return m, cmd
}

func (m *Model) openWork(l model.List, headers []string, idx int) {
	m.work = l
	m.headers = headers
	m.editIdx = idx
	m.dirty = false
	m.col = 0
	m.grid = NewTable(headers, l.Data, m.col, m.tableHeight())
	m.mode = modeTable
}

func (m Model) buildCellForm() *huh.Form {
	row := m.grid.Cursor()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s (row %d)", m.headers[m.col], row+1)).
				Value(&m.fb.cell),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildNameForm() *huh.Form {
	title := "Save list"
	if m.editIdx >= 0 {
		title = "Save changes"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("List name").
				Placeholder("Enter a name for this list").
				Value(&m.fb.name),
		).Title(title),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if all := m.lists.All(); m.selectedIdx < len(all) {
		name = all[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Are you sure you want to delete %q?", name)).
				Description("This will permanently delete the list.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateCellForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		row := m.grid.Cursor()
		if err := m.work.SetCell(row, m.headers[m.col], strings.TrimSpace(m.fb.cell)); err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", err)
		} else {
			m.dirty = true
			m.statusMsg = "Cell updated. Press s to save."
		}
		m.grid.SetColumns(Columns(m.headers, m.work.Data, m.col))
		m.grid.SetRows(Rows(m.headers, m.work.Data))
		m.mode = modeTable
		return m, nil
	case huh.StateAborted:
		m.mode = modeTable
		return m, nil
	}
	return m, cmd
}

func (m Model) updateNameForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		cmd := m.saveList()
		m.form = nil
		return m, cmd
	case huh.StateAborted:
		m.mode = modeTable
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
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if m.fb.confirm {
			return m, m.deleteList(m.selectedIdx)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActive(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modePicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	case modeCellForm:
		return m.updateCellForm(msg)
	case modeName:
		return m.updateNameForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the lists view.
func (m Model) View() string {
	switch m.mode {
	case modePicker:
		return m.viewPicker()
	case modeImporting:
		return m.viewImporting()
	case modeTable:
		return m.viewTable()
	case modeCellForm, modeName:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Saved Lists"))
	b.WriteString("\n\n")

	all := m.lists.All()
	if len(all) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No saved lists yet. Press 'i' to import a CSV file."))
	} else {
		for i, l := range all {
			label := fmt.Sprintf("%-30s %4d records", l.Name, len(l.Data))
			if n := len(l.Duplicates) + len(l.Blocked); n > 0 {
				label += theme.DimmedStyle.Render(fmt.Sprintf("  (%d removed)", n))
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	m.writeStatus(&b)

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("i import | enter view/edit | d delete"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) viewPicker() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Import CSV"))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	m.writeStatus(&b)
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter select | esc cancel"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewImporting() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Importing"))
	b.WriteString("\n\n")
	b.WriteString(m.label)
	b.WriteString("\n\n")
	m.bar.Width = m.formWidth()
	b.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("esc cancel"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewTable() string {
	var b strings.Builder

	title := m.work.Name
	if m.editIdx < 0 {
		title = "New list (unsaved)"
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	if len(m.work.Data) == 0 {
		b.WriteString(theme.DimmedStyle.Render("This list has no records."))
	} else {
		b.WriteString(m.grid.View())
	}
	b.WriteString("\n")

	if len(m.work.Duplicates) > 0 {
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf(
			"Duplicates removed (%d): %s", len(m.work.Duplicates), strings.Join(m.work.Duplicates, ", "))))
		b.WriteString("\n")
	}
	if len(m.work.Blocked) > 0 {
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf(
			"Blocked removed (%d): %s", len(m.work.Blocked), strings.Join(m.work.Blocked, ", "))))
		b.WriteString("\n")
	}

	m.writeStatus(&b)

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("j/k row | h/l column | enter edit cell | s save | esc back"))

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (m Model) writeStatus(b *strings.Builder) {
	if m.statusMsg == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	out := f.View()
	if m.statusMsg != "" && m.mode == modeName {
		out += "\n" + theme.StatusMsgStyle.Render(m.statusMsg)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(out)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	switch m.mode {
	case modeTable, modeCellForm, modeName:
		m.grid.SetHeight(m.tableHeight())
	case modePicker:
		m.picker.Height = m.tableHeight()
	}
}

func (m Model) tableHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
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

func (m Model) saveList() tea.Cmd {
	lists := m.lists
	work := m.work.Clone()
	idx := m.editIdx
	name := m.fb.name
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if idx < 0 {
			err = lists.Create(ctx, name, work.Data, work.Duplicates, work.Blocked)
		} else {
			err = lists.Edit(ctx, idx, name, work.Data)
		}
		return listSavedMsg{name: strings.TrimSpace(name), err: err}
	}
}

func (m Model) deleteList(idx int) tea.Cmd {
	lists := m.lists
	return func() tea.Msg {
		return listDeletedMsg{err: lists.Delete(context.Background(), idx)}
	}
}
