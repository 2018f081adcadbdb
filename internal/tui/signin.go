package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tiempo/internal/auth"
)

type authMode int

const (
	signInMode authMode = iota
	signUpMode
)

// authModel is the only view reachable without a session.
type authModel struct {
	width  int
	height int

	mode    authMode
	form    *huh.Form
	busy    bool
	errText string
	notice  string

	// Form field pointers (survive value copies)
	email      *string
	password   *string
	confirm    *string
	username   *string
	passphrase *string
	admin      *bool
}

func newAuthModel() authModel {
	var email, password, confirm, username, passphrase string
	var admin bool
	return authModel{
		email:      &email,
		password:   &password,
		confirm:    &confirm,
		username:   &username,
		passphrase: &passphrase,
		admin:      &admin,
	}
}

func (m *authModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *authModel) clearSecrets() {
	*m.password = ""
	*m.confirm = ""
	*m.passphrase = ""
}

// open shows the form for mode with the current field values.
func (m authModel) open(mode authMode) (authModel, tea.Cmd) {
	m.mode = mode
	m.busy = false

	if mode == signUpMode {
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(m.email),
				huh.NewInput().Title("Username").Value(m.username),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(m.password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(m.confirm),
			),
			huh.NewGroup(
				huh.NewInput().Title("Administrator passphrase").
					Description("Ask your administrator for the registration passphrase").
					EchoMode(huh.EchoModePassword).Value(m.passphrase),
				huh.NewConfirm().Title("Register as administrator?").Value(m.admin),
			),
		).WithShowHelp(true).WithShowErrors(true)
	} else {
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(m.email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(m.password),
			),
		).WithShowHelp(true).WithShowErrors(true)
	}
	return m, m.form.Init()
}

// failed shows err under a fresh copy of the current form.
func (m authModel) failed(text string) (authModel, tea.Cmd) {
	m.errText = text
	m.notice = ""
	m.clearSecrets()
	return m.open(m.mode)
}

// registered switches to sign-in after a successful registration.
func (m authModel) registered() (authModel, tea.Cmd) {
	m.errText = ""
	m.notice = "User registered, sign in to continue"
	m.clearSecrets()
	*m.username = ""
	*m.admin = false
	return m.open(signInMode)
}

func (m authModel) update(msg tea.Msg) (authModel, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}
	if m.busy {
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Enter):
			return m.open(signInMode)
		case key.Matches(km, keys.Register):
			m.errText, m.notice = "", ""
			return m.open(signUpMode)
		case key.Matches(km, keys.Quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m authModel) updateForm(msg tea.Msg) (authModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.form = nil
		return m, nil
	case huh.StateCompleted:
		m.form = nil
		m.busy = true
		m.errText = ""
		if m.mode == signUpMode {
			req := auth.SignUpRequest{
				Email:           *m.email,
				Password:        *m.password,
				ConfirmPassword: *m.confirm,
				Username:        *m.username,
				Passphrase:      *m.passphrase,
				Admin:           *m.admin,
			}
			return m, func() tea.Msg { return signUpMsg{req: req} }
		}
		req := signInMsg{email: *m.email, password: *m.password}
		return m, func() tea.Msg { return req }
	}
	return m, cmd
}

func (m authModel) view() string {
	w := min(m.width-4, 64)
	if w < 20 {
		return "Terminal too small"
	}

	title := titleStyle.Render("Sign in")
	if m.mode == signUpMode {
		title = titleStyle.Render("Create account")
	}

	rows := []string{title}
	if m.notice != "" {
		rows = append(rows, successStyle.Render(m.notice))
	}
	if m.errText != "" {
		rows = append(rows, errorStyle.Render(m.errText))
	}
	rows = append(rows, "")

	switch {
	case m.busy:
		if m.mode == signUpMode {
			rows = append(rows, mutedStyle.Render("Registering..."))
		} else {
			rows = append(rows, mutedStyle.Render("Signing in..."))
		}
	case m.form != nil:
		rows = append(rows, m.form.View())
	default:
		rows = append(rows, mutedStyle.Render("enter: sign in  r: register  q: quit"))
	}

	panel := activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, panel)
}
