// Package tui is the terminal front end: an application shell gated on the
// session, with Timer, History and Admin tabs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/export"
	"github.com/sadopc/tiempo/internal/reminder"
	"github.com/sadopc/tiempo/internal/stopwatch"
	"github.com/sadopc/tiempo/internal/store"
	"github.com/sadopc/tiempo/internal/timesheet"
)

// Authenticator is the sign-in surface the shell needs. *auth.Service and
// *api.Client both satisfy it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, req auth.SignUpRequest) (*store.Profile, error)
	Resume(ctx context.Context, token string) (*auth.Session, error)
	GrantRole(ctx context.Context, actor store.Profile, email, role string) (*store.Profile, error)
}

// Options configures NewApp.
type Options struct {
	Repo    store.Repository
	Auth    Authenticator
	Session auth.SessionFile

	// ReminderInterval of zero uses reminder.DefaultInterval; a negative
	// value disables the reminder.
	ReminderInterval time.Duration
	ExportDir        string

	// Now is the clock. nil means time.Now.
	Now func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	ctx         context.Context
	repo        store.Repository
	auth        Authenticator
	sessionFile auth.SessionFile
	exportDir   string
	now         func() time.Time

	width  int
	height int

	phase      phase
	activeView viewState
	showHelp   bool

	state   *appState
	signin  authModel
	timer   timerModel
	history historyModel
	admin   adminModel

	help   help.Model
	status statusMsg
}

func NewApp(ctx context.Context, opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.ReminderInterval
	if interval == 0 {
		interval = reminder.DefaultInterval
	}

	state := &appState{
		watch:  stopwatch.New(now),
		remind: reminder.New(interval, now()),
	}

	h := help.New()
	h.ShowAll = false

	return App{
		ctx:         ctx,
		repo:        opts.Repo,
		auth:        opts.Auth,
		sessionFile: opts.Session,
		exportDir:   opts.ExportDir,
		now:         now,
		phase:       phaseLoading,
		activeView:  viewTimer,
		state:       state,
		signin:      newAuthModel(),
		timer:       newTimerModel(state, now),
		history:     newHistoryModel(state),
		admin:       newAdminModel(state),
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.resume(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.signin.setSize(a.width, contentHeight)
		a.timer.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.admin.setSize(a.width, contentHeight)
		return a, nil

	case tickMsg:
		a.onTick()
		return a, tickCmd()

	case statusMsg:
		a.status = msg
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	// Session

	case sessionResumedMsg:
		if msg.err != nil {
			log.Printf("resume session: %v", msg.err)
			if errors.Is(msg.err, auth.ErrInvalidToken) {
				if err := a.sessionFile.Clear(); err != nil {
					log.Printf("clear session: %v", err)
				}
			}
		}
		if msg.err != nil || msg.session == nil {
			a.phase = phaseAuth
			var cmd tea.Cmd
			a.signin, cmd = a.signin.open(signInMode)
			return a, cmd
		}
		return a.startSession(msg.session)

	case signInMsg:
		return a, a.signIn(msg)

	case signUpMsg:
		return a, a.signUp(msg.req)

	case signedInMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			log.Printf("sign in: %v", msg.err)
			a.signin, cmd = a.signin.failed(authErrorText(msg.err, "Could not sign in"))
			return a, cmd
		}
		if err := a.sessionFile.Save(msg.session.Token); err != nil {
			log.Printf("save session: %v", err)
		}
		return a.startSession(msg.session)

	case signedUpMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			log.Printf("sign up: %v", msg.err)
			a.signin, cmd = a.signin.failed(authErrorText(msg.err, "Could not register"))
			return a, cmd
		}
		a.signin, cmd = a.signin.registered()
		return a, cmd
	}

	if a.phase != phaseReady {
		var cmd tea.Cmd
		a.signin, cmd = a.signin.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case entriesLoadedMsg:
		if msg.err != nil {
			log.Printf("load entries: %v", msg.err)
			a.status = statusMsg{text: "Could not load entries", isError: true}
			return a, nil
		}
		a.state.entries = msg.entries
		return a, nil

	case listsLoadedMsg:
		if msg.err != nil {
			log.Printf("load lists: %v", msg.err)
			a.status = statusMsg{text: "Could not load clients and tasks", isError: true}
			return a, nil
		}
		a.state.clients = msg.clients
		a.state.tasks = msg.tasks
		return a, nil

	case durationMsg:
		a.state.draftDuration = msg.seconds
		start := msg.start
		a.state.draftStart = &start
		if msg.autosaved {
			a.status = statusMsg{text: "Time recorded, complete the form to save"}
		} else {
			a.status = statusMsg{text: "Recorded " + duration.FormatHoursMinutes(msg.seconds) + ", press enter to save"}
		}
		return a, nil

	case saveEntryMsg:
		return a, a.saveEntry(msg.draft)

	case entrySavedMsg:
		if msg.err != nil {
			log.Printf("save entry: %v", msg.err)
			a.status = statusMsg{text: "Could not save entry", isError: true}
			return a, nil
		}
		a.state.entries = timesheet.PrependEntry(a.state.entries, *msg.entry, a.state.displayName())
		a.state.draftDuration = 0
		a.state.draftStart = nil
		a.status = statusMsg{text: "Entry saved"}
		return a, nil

	case updateEntryMsg:
		return a, a.updateEntry(msg.entry)

	case entryUpdatedMsg:
		if msg.err != nil {
			log.Printf("update entry %s: %v", msg.entry.ID, msg.err)
			text := "Could not update entry"
			if errors.Is(msg.err, store.ErrNotFound) {
				text = "Entry no longer exists"
			}
			a.status = statusMsg{text: text, isError: true}
			return a, nil
		}
		a.state.entries = timesheet.ReplaceEntry(a.state.entries, msg.entry, a.state.displayName())
		a.status = statusMsg{text: "Entry updated"}
		return a, nil

	case editListMsg:
		return a, a.editList(msg)

	case listEditedMsg:
		verb, done := "add", "added"
		if msg.remove {
			verb, done = "remove", "removed"
		}
		if msg.err != nil {
			log.Printf("%s %s %q: %v", verb, msg.kind.singular(), msg.name, msg.err)
			a.status = statusMsg{text: fmt.Sprintf("Could not %s %s", verb, msg.kind.singular()), isError: true}
		} else {
			a.status = statusMsg{text: fmt.Sprintf("%s %s", msg.kind.title(), done)}
		}
		return a, a.loadLists()

	case grantRoleMsg:
		return a, a.grantRole(msg)

	case roleGrantedMsg:
		return a.onRoleGranted(msg)

	case exportMsg:
		return a, a.export(msg.format)

	case exportDoneMsg:
		switch {
		case errors.Is(msg.err, export.ErrNoEntries):
			a.status = statusMsg{text: "No entries to export", isError: true}
		case msg.err != nil:
			log.Printf("export: %v", msg.err)
			a.status = statusMsg{text: fmt.Sprintf("Export failed: %v", msg.err), isError: true}
		default:
			a.status = statusMsg{text: "Exported to " + msg.path}
		}
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.phase {
	case phaseLoading:
		if key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		return a, nil
	case phaseAuth:
		var cmd tea.Cmd
		a.signin, cmd = a.signin.update(msg)
		return a, cmd
	}

	// If a child view is capturing input (e.g. form), delegate first.
	if a.isFormActive() {
		return a.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	case key.Matches(msg, keys.Tab1):
		a.activeView = viewTimer
		return a, nil
	case key.Matches(msg, keys.Tab2):
		a.activeView = viewHistory
		return a, nil
	case key.Matches(msg, keys.Tab3):
		if !a.state.isAdmin() {
			return a, nil
		}
		a.activeView = viewAdmin
		return a, a.loadLists()
	case key.Matches(msg, keys.Tab):
		a.activeView = a.nextView()
		if a.activeView == viewAdmin {
			return a, a.loadLists()
		}
		return a, nil
	case key.Matches(msg, keys.Dismiss):
		if a.state.remind.Visible() {
			a.state.remind.Dismiss()
			return a, nil
		}
	case key.Matches(msg, keys.SignOut):
		return a.signOut()
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
		a.syncReminder()
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewAdmin:
		a.admin, cmd = a.admin.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.formActive
	case viewHistory:
		return a.history.formActive || a.history.picking
	case viewAdmin:
		return a.admin.formActive
	}
	return false
}

// views lists the tabs available to the signed-in profile.
func (a App) views() []viewState {
	v := []viewState{viewTimer, viewHistory}
	if a.state.isAdmin() {
		v = append(v, viewAdmin)
	}
	return v
}

func (a App) nextView() viewState {
	vs := a.views()
	for i, v := range vs {
		if v == a.activeView {
			return vs[(i+1)%len(vs)]
		}
	}
	return viewTimer
}

func (a App) onTick() {
	a.state.watch.Tick()
	now := a.now()
	a.syncReminder()
	if a.state.remind.Tick(now) {
		log.Printf("reminder shown")
	}
}

func (a App) syncReminder() {
	a.state.remind.SetRunning(a.state.watch.Running(), a.now())
}

func (a App) startSession(s *auth.Session) (App, tea.Cmd) {
	p := s.Profile
	a.state.profile = &p
	a.phase = phaseReady
	a.activeView = viewTimer
	a.signin = newAuthModel()
	a.status = statusMsg{text: "Signed in as " + p.DisplayName()}
	return a, tea.Batch(a.loadEntries(), a.loadLists())
}

// signOut drops the session and every piece of per-user state.
func (a App) signOut() (App, tea.Cmd) {
	if err := a.sessionFile.Clear(); err != nil {
		log.Printf("clear session: %v", err)
	}
	if c, ok := a.auth.(interface{ SetToken(string) }); ok {
		c.SetToken("")
	}

	a.state.watch.Reset()
	*a.state = appState{watch: a.state.watch, remind: a.state.remind}
	a.syncReminder()
	a.state.remind.Dismiss()

	a.timer.clearForm()
	a.history.reset()
	a.admin.reset()

	a.phase = phaseAuth
	a.activeView = viewTimer
	a.signin = newAuthModel()
	a.status = statusMsg{text: "Signed out"}

	var cmd tea.Cmd
	a.signin, cmd = a.signin.open(signInMode)
	return a, cmd
}

func (a App) onRoleGranted(msg roleGrantedMsg) (App, tea.Cmd) {
	if msg.err != nil {
		log.Printf("grant role: %v", msg.err)
		text := "Could not grant role"
		switch {
		case errors.Is(msg.err, auth.ErrForbidden):
			text = "Administrator role required"
		case errors.Is(msg.err, store.ErrNotFound):
			text = "No user registered with that email"
		case errors.Is(msg.err, auth.ErrInvalidRole):
			text = "Unknown role"
		}
		a.status = statusMsg{text: text, isError: true}
		return a, nil
	}

	p := msg.profile
	a.status = statusMsg{text: fmt.Sprintf("%s is now %s", p.Email, p.Role)}
	if p.ID == a.state.profile.ID {
		updated := *p
		a.state.profile = &updated
		if !updated.IsAdmin() && a.activeView == viewAdmin {
			a.activeView = viewTimer
		}
	}
	return a, nil
}

// --- Commands ---

func (a App) resume() tea.Cmd {
	return func() tea.Msg {
		token, err := a.sessionFile.Load()
		if err != nil || token == "" {
			return sessionResumedMsg{err: err}
		}
		s, err := a.auth.Resume(a.ctx, token)
		return sessionResumedMsg{session: s, err: err}
	}
}

func (a App) signIn(req signInMsg) tea.Cmd {
	return func() tea.Msg {
		s, err := a.auth.SignIn(a.ctx, req.email, req.password)
		return signedInMsg{session: s, err: err}
	}
}

func (a App) signUp(req auth.SignUpRequest) tea.Cmd {
	return func() tea.Msg {
		p, err := a.auth.SignUp(a.ctx, req)
		return signedUpMsg{profile: p, err: err}
	}
}

func (a App) loadEntries() tea.Cmd {
	p := *a.state.profile
	return func() tea.Msg {
		entries, err := a.repo.ListEntries(a.ctx, p.ID)
		if err != nil {
			return entriesLoadedMsg{err: err}
		}
		timesheet.StampUsername(entries, p.DisplayName())
		return entriesLoadedMsg{entries: entries}
	}
}

func (a App) loadLists() tea.Cmd {
	return func() tea.Msg {
		clients, err := a.repo.ListClients(a.ctx)
		if err != nil {
			return listsLoadedMsg{err: err}
		}
		tasks, err := a.repo.ListTasks(a.ctx)
		if err != nil {
			return listsLoadedMsg{err: err}
		}
		return listsLoadedMsg{clients: clients, tasks: tasks}
	}
}

func (a App) saveEntry(d store.Draft) tea.Cmd {
	userID := a.state.profile.ID
	return func() tea.Msg {
		e, err := a.repo.InsertEntry(a.ctx, userID, d)
		return entrySavedMsg{entry: e, err: err}
	}
}

func (a App) updateEntry(e store.TimeEntry) tea.Cmd {
	userID := a.state.profile.ID
	return func() tea.Msg {
		err := a.repo.UpdateEntry(a.ctx, userID, e)
		return entryUpdatedMsg{entry: e, err: err}
	}
}

func (a App) editList(req editListMsg) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch {
		case req.kind == clientList && req.remove:
			err = a.repo.RemoveClient(a.ctx, req.name)
		case req.kind == clientList:
			err = a.repo.AddClient(a.ctx, req.name)
		case req.remove:
			err = a.repo.RemoveTask(a.ctx, req.name)
		default:
			err = a.repo.AddTask(a.ctx, req.name)
		}
		return listEditedMsg{editListMsg: req, err: err}
	}
}

func (a App) grantRole(req grantRoleMsg) tea.Cmd {
	actor := *a.state.profile
	return func() tea.Msg {
		p, err := a.auth.GrantRole(a.ctx, actor, req.email, req.role)
		return roleGrantedMsg{profile: p, err: err}
	}
}

func (a App) export(f export.Format) tea.Cmd {
	entries := a.state.entries
	name := a.state.displayName()
	path := filepath.Join(a.exportDir, export.FileName(f, a.now()))
	return func() tea.Msg {
		err := export.Write(f, entries, name, path)
		return exportDoneMsg{path: path, err: err}
	}
}

// --- Rendering ---

func (a App) View() string {
	if a.width == 0 || a.phase == phaseLoading {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	if a.phase == phaseAuth {
		content = a.signin.view()
	} else {
		switch a.activeView {
		case viewTimer:
			content = a.timer.view()
		case viewHistory:
			content = a.history.view()
		case viewAdmin:
			content = a.admin.view()
		}
		if a.state.remind.Visible() {
			banner := bannerStyle.Width(a.width).Render(reminder.Message + "   b: dismiss")
			content = lipgloss.JoinVertical(lipgloss.Left, banner, content)
		}
	}

	// Calculate available height for content
	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tiempo")
	if a.phase != phaseReady {
		return headerStyle.Render(title)
	}

	var tabs []string
	for _, v := range a.views() {
		if v == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(viewNames[v]))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(viewNames[v]))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	user := secondaryStyle.Render(a.state.displayName())
	if a.state.isAdmin() {
		user += mutedStyle.Render(" (admin)")
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", user)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := ""
	if a.phase == phaseReady {
		helpView = a.help.View(keys)
	}

	status := ""
	if a.status.text != "" {
		style := mutedStyle
		if a.status.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status.text)
	}

	// Timer indicator in footer
	timerInfo := ""
	switch a.state.watch.State() {
	case stopwatch.Running:
		timerInfo = successStyle.Render(" ● " + duration.FormatClock(a.state.watch.Elapsed()))
	case stopwatch.Paused:
		timerInfo = warningStyle.Render(" ⏸ " + duration.FormatClock(a.state.watch.Elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
