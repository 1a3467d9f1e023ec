package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/credential"
	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeSummary        Mode = iota // Current settings
	ModeFormPrefs                  // Notifications, visibility, theme
	ModeFormMail                   // Transport, SMTP and IMAP
	ModeValidating                 // Testing the mail server
	ModeValidateResult             // Show test result
)

// SavedMsg carries the configuration after it was written to disk.
type SavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Err error
}

type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// Model is the Bubble Tea model for the settings page.
type Model struct {
	mode Mode
	path string
	cfg  model.AppConfig

	prefsForm *huh.Form
	mailForm  *huh.Form

	// Form field values (huh binds to these)
	formEmailNotif bool
	formSMSNotif   bool
	formVisibility string
	formTheme      string

	formTransport    string
	formFrom         string
	formSMTPHost     string
	formSMTPPort     string
	formSMTPUser     string
	formSMTPPassword string
	formSMTPTLS      bool
	formIMAPHost     string
	formIMAPPort     string
	formIMAPUser     string
	formIMAPPassword string
	formSentMailbox  string

	validError error
	spinner    spinner.Model

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view editing cfg, which is saved to path.
func New(cfg model.AppConfig, path string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		path:    path,
		cfg:     cfg,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init is a no-op.
func (m Model) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming keystrokes.
func (m Model) Capturing() bool {
	return m.mode != ModeSummary
}

// Config returns the configuration as currently edited.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedInternalMsg:
		m.mode = ModeSummary
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		theme.Apply(m.cfg.Display.Theme)
		m.statusMsg = "Settings saved"
		cfg := msg.cfg
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }

	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSummary:
		return m.handleSummaryKeys(msg)
	case ModeValidating:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeSummary
		}
		return m, nil
	case ModeValidateResult:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Select) {
			m.mode = ModeSummary
		}
		return m, nil
	}
	return m.updateActiveForm(msg)
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit), msg.String() == "p":
		m.loadFormFields()
		m.prefsForm = m.buildPrefsForm()
		m.mode = ModeFormPrefs
		return m, m.prefsForm.Init()

	case msg.String() == "m":
		m.loadFormFields()
		m.mailForm = m.buildMailForm()
		m.mode = ModeFormMail
		return m, m.mailForm.Init()

	case msg.String() == "t":
		if m.cfg.SMTP.Host == "" {
			m.statusMsg = "No SMTP server configured"
			return m, nil
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, validate(m.cfg))
	}
	return m, nil
}

func (m *Model) loadFormFields() {
	c := m.cfg
	m.formEmailNotif = c.Settings.EmailNotifications
	m.formSMSNotif = c.Settings.SMSNotifications
	m.formVisibility = c.Settings.ProfileVisibility
	m.formTheme = c.Display.Theme

	m.formTransport = c.Merge.Transport
	m.formFrom = c.Merge.From
	m.formSMTPHost = c.SMTP.Host
	m.formSMTPPort = c.SMTP.Port
	m.formSMTPUser = c.SMTP.Username
	m.formSMTPTLS = c.SMTP.TLS
	m.formIMAPHost = c.IMAP.Host
	m.formIMAPPort = c.IMAP.Port
	m.formIMAPUser = c.IMAP.Username
	m.formSentMailbox = c.IMAP.SentMailbox

	// Never pre-fill credentials
	m.formSMTPPassword = ""
	m.formIMAPPassword = ""
}

func (m *Model) buildPrefsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Email notifications").
				Value(&m.formEmailNotif),
			huh.NewConfirm().
				Title("SMS notifications").
				Value(&m.formSMSNotif),
			huh.NewSelect[string]().
				Title("Profile visibility").
				Options(huh.NewOptions("public", "private")...).
				Value(&m.formVisibility),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&m.formTheme),
		).Title("Preferences"),
	).WithWidth(m.formWidth())
}

func (m *Model) buildMailForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transport").
				Description("log writes each message to the log file; smtp sends it").
				Options(huh.NewOptions(model.TransportLog, model.TransportSMTP)...).
				Value(&m.formTransport),
			huh.NewInput().
				Title("From").
				Placeholder("noreply@example.com").
				Value(&m.formFrom).
				Validate(validateEmail),
		).Title("Sending"),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&m.formSMTPHost),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder("587").
				Value(&m.formSMTPPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Value(&m.formSMTPUser),
			huh.NewInput().
				Title("Password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&m.formSMTPPassword),
			huh.NewConfirm().
				Title("Implicit TLS").
				Description("Off uses STARTTLS when offered").
				Value(&m.formSMTPTLS),
		).Title("SMTP"),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Description("Optional; a copy of every message is filed here").
				Placeholder("imap.example.com").
				Value(&m.formIMAPHost),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.formIMAPPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Value(&m.formIMAPUser),
			huh.NewInput().
				Title("Password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&m.formIMAPPassword),
			huh.NewInput().
				Title("Sent mailbox").
				Placeholder("Sent").
				Value(&m.formSentMailbox),
		).Title("Sent copy (IMAP)"),
	).WithWidth(m.formWidth())
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	var f **huh.Form
	switch m.mode {
	case ModeFormPrefs:
		f = &m.prefsForm
	case ModeFormMail:
		f = &m.mailForm
	default:
		return m, nil
	}
	if *f == nil {
		return m, nil
	}

	mdl, cmd := (*f).Update(msg)
	if nf, ok := mdl.(*huh.Form); ok {
		*f = nf
	}

	switch (*f).State {
	case huh.StateCompleted:
		*f = nil
		return m, m.save(m.applyForm())
	case huh.StateAborted:
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

// applyForm returns a copy of the configuration with the form values of
// the active mode applied.
func (m Model) applyForm() model.AppConfig {
	c := m.cfg
	c.Blocked = append([]string(nil), m.cfg.Blocked...)
	switch m.mode {
	case ModeFormPrefs:
		c.Settings.EmailNotifications = m.formEmailNotif
		c.Settings.SMSNotifications = m.formSMSNotif
		c.Settings.ProfileVisibility = m.formVisibility
		c.Display.Theme = m.formTheme
	case ModeFormMail:
		c.Merge.Transport = m.formTransport
		c.Merge.From = strings.TrimSpace(m.formFrom)
		c.SMTP.Host = strings.TrimSpace(m.formSMTPHost)
		c.SMTP.Port = strings.TrimSpace(m.formSMTPPort)
		c.SMTP.Username = strings.TrimSpace(m.formSMTPUser)
		c.SMTP.TLS = m.formSMTPTLS
		c.IMAP.Host = strings.TrimSpace(m.formIMAPHost)
		c.IMAP.Port = strings.TrimSpace(m.formIMAPPort)
		c.IMAP.Username = strings.TrimSpace(m.formIMAPUser)
		c.IMAP.SentMailbox = strings.TrimSpace(m.formSentMailbox)
	}
	return c
}

// --- View ---

// View renders the settings page based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeFormPrefs:
		return m.viewForm(m.prefsForm)
	case ModeFormMail:
		return m.viewForm(m.mailForm)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return m.viewSummary()
	}
}

func (m Model) viewSummary() string {
	var b strings.Builder
	c := m.cfg

	b.WriteString(theme.TitleStyle.Render("Settings"))
	b.WriteString("\n\n")

	section := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCyan)
	row := func(label, value string) {
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("  %-22s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(section.Render("Preferences"))
	b.WriteString("\n")
	row("Email notifications", onOff(c.Settings.EmailNotifications))
	row("SMS notifications", onOff(c.Settings.SMSNotifications))
	row("Profile visibility", c.Settings.ProfileVisibility)
	row("Theme", c.Display.Theme)

	b.WriteString("\n")
	b.WriteString(section.Render("Mail"))
	b.WriteString("\n")
	row("Transport", c.Merge.Transport)
	row("From", c.Merge.From)
	row("SMTP server", orDash(hostPort(c.SMTP.Host, c.SMTP.Port)))
	row("SMTP user", orDash(c.SMTP.Username))
	row("Sent copy", orDash(hostPort(c.IMAP.Host, c.IMAP.Port)))

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("p preferences | m mail server | t test connection"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(b.String())
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func hostPort(host, port string) string {
	if host == "" {
		return ""
	}
	return host + ":" + port
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(f.View())
}

func (m Model) viewValidating() string {
	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (m Model) viewValidateResult() string {
	var content string
	if m.validError != nil {
		content = theme.ErrorStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			theme.HelpStyle.Render("enter/esc back")
	} else {
		content = theme.SuccessStyle.Render("Connection successful") + "\n\n" +
			theme.HelpStyle.Render("enter/esc back")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
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

// save stores new passwords in the keyring and writes the config file.
func (m Model) save(cfg model.AppConfig) tea.Cmd {
	path := m.path
	smtpPW := m.formSMTPPassword
	imapPW := m.formIMAPPassword
	return func() tea.Msg {
		if smtpPW != "" {
			if err := credential.Set(credential.SMTPPassword, smtpPW); err != nil {
				return savedInternalMsg{err: err}
			}
		}
		if imapPW != "" {
			if err := credential.Set(credential.IMAPPassword, imapPW); err != nil {
				return savedInternalMsg{err: err}
			}
		}
		if err := model.SaveConfig(path, &cfg); err != nil {
			return savedInternalMsg{err: err}
		}
		return savedInternalMsg{cfg: cfg}
	}
}

// validate logs in to the configured SMTP server, and to the IMAP server
// when a sent copy is enabled.
func validate(cfg model.AppConfig) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		pw, err := credential.Lookup(credential.SMTPPassword)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}
		if err := merge.NewSMTPTransport(cfg.SMTP, pw).Verify(ctx); err != nil {
			return ValidateResultMsg{Err: err}
		}

		if cfg.IMAP.Host == "" {
			return ValidateResultMsg{}
		}
		pw, err = credential.Lookup(credential.IMAPPassword)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}
		return ValidateResultMsg{Err: merge.NewIMAPAppender(cfg.IMAP, pw).Verify(ctx)}
	}
}

// --- Validators ---

func validateEmail(s string) error {
	if !merge.IsEmail(s) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
