package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
	"github.com/nhle/listmailer/internal/sync"
	"github.com/nhle/listmailer/internal/theme"
)

type mailerMode int

const (
	modeChoose mailerMode = iota
	modeMapping
	modeReview
	modeEditTemplate
	modeSending
	modeDone
)

const noneOption = "(none)"

type formBindings struct {
	templateID int
	firstName  string
	lastName   string
	email      string
	subject    string
	body       string
}

// Model runs a mail merge: pick a list, map its columns, review, send.
type Model struct {
	mode   mailerMode
	lists  *store.ListStore
	engine *merge.Engine
	keys   *keys.KeyMap

	templates   []model.Template
	selectedIdx int
	list        model.List
	headers     []string
	tpl         model.Template
	mapping     model.FieldMapping

	run      *merge.Run
	progress merge.Progress
	bar      bprogress.Model
	report   merge.Report
	runErr   error

	form      *huh.Form
	fb        *formBindings
	statusMsg string
	width     int
	height    int
}

// New creates a mailer view.
func New(lists *store.ListStore, engine *merge.Engine, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:      modeChoose,
		lists:     lists,
		engine:    engine,
		keys:      k,
		templates: merge.Catalog(),
		bar:       bprogress.New(bprogress.WithDefaultGradient()),
		fb:        &formBindings{templateID: 1},
		width:     width,
		height:    height,
	}
}

// Init is a no-op.
func (m Model) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming keystrokes.
func (m Model) Capturing() bool {
	return m.mode != modeChoose
}

// SetEngine replaces the engine used for the next send, e.g. after the
// mail settings changed. A run in progress keeps its engine.
func (m *Model) SetEngine(e *merge.Engine) {
	m.engine = e
}

// Reset returns to list selection, e.g. after lists changed.
func (m *Model) Reset() {
	if m.mode == modeSending {
		return
	}
	m.mode = modeChoose
	if n := m.lists.Len(); m.selectedIdx >= n {
		m.selectedIdx = 0
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sync.MergeProgressMsg:
		if msg.Run != m.run {
			return m, nil
		}
		m.progress = msg.Progress
		return m, sync.WaitForMerge(m.run)

	case sync.MergeDoneMsg:
		if msg.Run != m.run {
			return m, nil
		}
		m.run = nil
		m.report = msg.Report
		m.runErr = msg.Err
		m.mode = modeDone
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeChoose:
		return m.handleChooseKey(msg)
	case modeReview:
		return m.handleReviewKey(msg)
	case modeSending:
		if key.Matches(msg, m.keys.Back) && m.run != nil {
			m.run.Cancel()
		}
		return m, nil
	case modeDone:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Select) {
			m.mode = modeChoose
		}
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) handleChooseKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	all := m.lists.All()
	n := len(all)
	switch {
	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = n - 1
			}
		}
	case key.Matches(msg, m.keys.Select):
		if n == 0 || m.selectedIdx >= n {
			return m, nil
		}
		return m.chooseList(all[m.selectedIdx])
	}
	return m, nil
}

func (m Model) chooseList(l model.List) (Model, tea.Cmd) {
	m.list = l
	m.headers = model.DisplayHeaders(l.Headers())
	m.mapping = guessMapping(m.headers)
	m.fb.firstName = orNone(m.mapping.FirstName)
	m.fb.lastName = orNone(m.mapping.LastName)
	m.fb.email = orNone(m.mapping.Email)
	m.statusMsg = ""
	m.form = m.buildMappingForm()
	m.mode = modeMapping
	return m, m.form.Init()
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeChoose
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		m.fb.subject = m.tpl.Subject
		m.fb.body = m.tpl.Body
		m.form = m.buildTemplateForm()
		m.mode = modeEditTemplate
		return m, m.form.Init()

	case msg.String() == "m":
		m.form = m.buildMappingForm()
		m.mode = modeMapping
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Select):
		return m.send()
	}
	return m, nil
}

func (m Model) send() (Model, tea.Cmd) {
	if err := merge.Validate(m.mapping, m.list.Data); err != nil {
		m.statusMsg = sendError(err)
		return m, nil
	}
	m.statusMsg = ""
	m.progress = merge.Progress{Total: len(m.list.Data)}
	m.report = merge.Report{}
	m.runErr = nil
	m.run = m.engine.StartAsync(context.Background(), m.tpl, m.mapping, m.list.Data)
	m.mode = modeSending
	return m, sync.WaitForMerge(m.run)
}

func sendError(err error) string {
	var invalid *merge.InvalidEmailError
	switch {
	case errors.As(err, &invalid):
		return fmt.Sprintf("The column %q contains non-email values (row %d). Please select the correct Email option.",
			invalid.Column, invalid.Row)
	case errors.Is(err, context.Canceled):
		return "Sending cancelled"
	default:
		return err.Error()
	}
}

func (m Model) buildMappingForm() *huh.Form {
	tplOpts := make([]huh.Option[int], len(m.templates))
	for i, t := range m.templates {
		tplOpts[i] = huh.NewOption(t.Title, t.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Template").
				Options(tplOpts...).
				Value(&m.fb.templateID),
			huh.NewSelect[string]().
				Title("First Name").
				Options(headerOptions(m.headers)...).
				Value(&m.fb.firstName),
			huh.NewSelect[string]().
				Title("Last Name").
				Options(headerOptions(m.headers)...).
				Value(&m.fb.lastName),
			huh.NewSelect[string]().
				Title("Email").
				Options(headerOptions(m.headers)...).
				Value(&m.fb.email),
		).Title(fmt.Sprintf("Mail merge: %s (%d recipients)", m.list.Name, len(m.list.Data))),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildTemplateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject),
			huh.NewText().
				Title("Body").
				Lines(10).
				Value(&m.fb.body),
		).Title(m.tpl.Title),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func headerOptions(headers []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(headers)+1)
	opts = append(opts, huh.NewOption(noneOption, noneOption))
	for _, h := range headers {
		opts = append(opts, huh.NewOption(h, h))
	}
	return opts
}

func orNone(h string) string {
	if h == "" {
		return noneOption
	}
	return h
}

func fromOption(v string) string {
	if v == noneOption {
		return ""
	}
	return v
}

// guessMapping preselects headers whose names look like the placeholders.
func guessMapping(headers []string) model.FieldMapping {
	var fm model.FieldMapping
	for _, h := range headers {
		norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h))
		switch {
		case fm.FirstName == "" && (norm == "firstname" || norm == "first" || norm == "name"):
			fm.FirstName = h
		case fm.LastName == "" && (norm == "lastname" || norm == "last" || norm == "surname"):
			fm.LastName = h
		case fm.Email == "" && norm == "email":
			fm.Email = h
		}
	}
	return fm
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || (m.mode != modeMapping && m.mode != modeEditTemplate) {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == modeMapping {
			m.applyMapping()
		} else {
			m.tpl.Subject = m.fb.subject
			m.tpl.Body = m.fb.body
		}
		m.mode = modeReview
		return m, nil
	case huh.StateAborted:
		if m.mode == modeMapping {
			m.mode = modeChoose
		} else {
			m.mode = modeReview
		}
		return m, nil
	}
	return m, cmd
}

func (m *Model) applyMapping() {
	m.mapping = model.FieldMapping{
		FirstName: fromOption(m.fb.firstName),
		LastName:  fromOption(m.fb.lastName),
		Email:     fromOption(m.fb.email),
	}
	for _, t := range m.templates {
		if t.ID == m.fb.templateID {
			m.tpl = t
			break
		}
	}
}

// View renders the mailer.
func (m Model) View() string {
	switch m.mode {
	case modeMapping, modeEditTemplate:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeReview:
		return m.viewReview()
	case modeSending:
		return m.viewSending()
	case modeDone:
		return m.viewDone()
	default:
		return m.viewChoose()
	}
}

func (m Model) viewChoose() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Mail Handler"))
	b.WriteString("\n\n")

	all := m.lists.All()
	if len(all) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No saved lists. Import one from the Lists page first."))
	} else {
		b.WriteString(theme.DimmedStyle.Render("Choose a list to send to:"))
		b.WriteString("\n\n")
		for i, l := range all {
			label := fmt.Sprintf("%-30s %4d recipients", l.Name, len(l.Data))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter choose list"))
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// Sample fills the current template with the first record.
func (m Model) Sample() (subject, body string) {
	vars := map[string]string{}
	if len(m.list.Data) > 0 {
		vars = merge.Vars(m.mapping, m.list.Data[0])
	}
	return merge.Fill(m.tpl.Subject, vars), merge.Fill(m.tpl.Body, vars)
}

func (m Model) viewReview() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("%s → %s", m.tpl.Title, m.list.Name)))
	b.WriteString("\n\n")

	b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf(
		"First Name: %s | Last Name: %s | Email: %s",
		orNone(m.mapping.FirstName), orNone(m.mapping.LastName), orNone(m.mapping.Email),
	)))
	b.WriteString("\n\n")

	subject, body := m.Sample()
	preview := "Subject: " + subject + "\n\n" + body
	b.WriteString(theme.DetailPanelStyle.Width(m.formWidth()).Render(preview))

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(fmt.Sprintf(
		"enter send to %d recipients | e edit template | m mapping | esc back", len(m.list.Data))))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewSending() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Sending"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Sending emails... %d/%d", m.progress.Current, m.progress.Total))
	b.WriteString("\n\n")
	m.bar.Width = m.formWidth()
	b.WriteString(m.bar.ViewAs(float64(m.progress.Percent) / 100))
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("esc cancel"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewDone() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Done"))
	b.WriteString("\n\n")
	if m.runErr != nil {
		b.WriteString(theme.ErrorStyle.Render(sendError(m.runErr)))
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d of %d emails processed", m.report.Sent, m.report.Total)))
	} else {
		b.WriteString(theme.SuccessStyle.Render(fmt.Sprintf("%d emails processed successfully", m.report.Sent)))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter/esc back"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
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
