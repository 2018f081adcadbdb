package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tiempo/internal/store"
	"github.com/sadopc/tiempo/internal/timesheet"
)

// adminModel manages the client and task lists and role grants.
type adminModel struct {
	state  *appState
	width  int
	height int

	focus  listKind
	cursor [2]int

	formActive bool
	form       *huh.Form
	formType   string // "add", "grant"

	// Form field pointers (survive value copies)
	name  *string
	email *string
	role  *string
}

func newAdminModel(state *appState) adminModel {
	name, email, role := "", "", store.RoleAdmin
	return adminModel{
		state: state,
		name:  &name,
		email: &email,
		role:  &role,
	}
}

func (m *adminModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *adminModel) reset() {
	m.focus = clientList
	m.cursor = [2]int{}
	m.formActive = false
	m.form = nil
}

func (m adminModel) list(k listKind) []string {
	if k == taskList {
		return m.state.tasks
	}
	return m.state.clients
}

func (m adminModel) update(msg tea.Msg) (adminModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	items := m.list(m.focus)
	if m.cursor[m.focus] >= len(items) {
		m.cursor[m.focus] = max(0, len(items)-1)
	}

	switch {
	case key.Matches(km, keys.Left):
		m.focus = clientList
	case key.Matches(km, keys.Right):
		m.focus = taskList
	case key.Matches(km, keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case key.Matches(km, keys.Down):
		if m.cursor[m.focus] < len(items)-1 {
			m.cursor[m.focus]++
		}
	case key.Matches(km, keys.New):
		return m.showAddForm()
	case key.Matches(km, keys.Delete):
		if len(items) > 0 {
			req := editListMsg{kind: m.focus, remove: true, name: items[m.cursor[m.focus]]}
			return m, func() tea.Msg { return req }
		}
	case key.Matches(km, keys.Grant):
		return m.showGrantForm()
	}
	return m, nil
}

func (m adminModel) showAddForm() (adminModel, tea.Cmd) {
	*m.name = ""
	m.formType = "add"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(m.focus.title()+" Name").Value(m.name),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m adminModel) showGrantForm() (adminModel, tea.Cmd) {
	*m.email = ""
	*m.role = store.RoleAdmin
	m.formType = "grant"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("User email").Value(m.email),
			huh.NewSelect[string]().Title("Role").
				Options(
					huh.NewOption("Administrator", store.RoleAdmin),
					huh.NewOption("User", store.RoleUser),
				).Value(m.role),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m adminModel) updateForm(msg tea.Msg) (adminModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
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
		m.formActive = false
		m.form = nil
		return m, nil
	case huh.StateCompleted:
		m.formActive = false
		m.form = nil
		switch m.formType {
		case "add":
			name, ok := timesheet.NormalizeName(m.list(m.focus), *m.name)
			if !ok {
				return m, nil
			}
			req := editListMsg{kind: m.focus, name: name}
			return m, func() tea.Msg { return req }
		case "grant":
			email := strings.TrimSpace(*m.email)
			if email == "" {
				return m, nil
			}
			req := grantRoleMsg{email: email, role: *m.role}
			return m, func() tea.Msg { return req }
		}
	}
	return m, cmd
}

func (m adminModel) view() string {
	w := m.width - 4
	if w < 20 {
		return "Terminal too small"
	}

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New " + m.focus.title())
		if m.formType == "grant" {
			title = titleStyle.Render("Grant Role")
		}
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	colWidth := max(20, (w-2)/2)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(clientList, "Clients", colWidth),
		m.renderList(taskList, "Tasks", colWidth),
	)
	nav := mutedStyle.Render("  ←/→: switch list  n: new  d: remove  g: grant role")
	return lipgloss.JoinVertical(lipgloss.Left, columns, nav)
}

func (m adminModel) renderList(k listKind, title string, w int) string {
	items := m.list(k)
	focused := k == m.focus

	style := panelStyle
	if focused {
		style = activePanelStyle
	}

	rows := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(items))), ""}
	if len(items) == 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("No %ss yet. Press n to add one.", k.singular())))
		return style.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, name := range items {
		cursor := "  "
		itemStyle := normalItemStyle
		if focused && i == m.cursor[k] {
			cursor = "> "
			itemStyle = selectedItemStyle
		}
		rows = append(rows, itemStyle.Render(cursor+truncate(name, w-8)))
	}
	return style.Width(w).Render(strings.Join(rows, "\n"))
}
