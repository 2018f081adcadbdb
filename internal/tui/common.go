package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/export"
	"github.com/sadopc/tiempo/internal/reminder"
	"github.com/sadopc/tiempo/internal/stopwatch"
	"github.com/sadopc/tiempo/internal/store"
)

// viewState represents the currently active tab.
type viewState int

const (
	viewTimer viewState = iota
	viewHistory
	viewAdmin
)

var viewNames = []string{"Timer", "History", "Admin"}

// phase gates the shell on the session.
type phase int

const (
	phaseLoading phase = iota
	phaseAuth
	phaseReady
)

// appState is owned by the shell and read by every view. Views never mutate
// it except for the stopwatch, which the timer view drives directly.
type appState struct {
	profile *store.Profile

	entries []store.TimeEntry
	clients []string
	tasks   []string

	// draft duration and start handed from the stopwatch to the entry form
	draftDuration int64
	draftStart    *time.Time

	watch  *stopwatch.Stopwatch
	remind *reminder.Reminder
}

func (s *appState) displayName() string {
	if s.profile == nil {
		return ""
	}
	return s.profile.DisplayName()
}

func (s *appState) isAdmin() bool {
	return s.profile != nil && s.profile.IsAdmin()
}

// listKind selects the clients or the tasks list.
type listKind int

const (
	clientList listKind = iota
	taskList
)

func (k listKind) singular() string {
	if k == taskList {
		return "task"
	}
	return "client"
}

func (k listKind) title() string {
	if k == taskList {
		return "Task"
	}
	return "Client"
}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

// Requests emitted by views and executed by the shell.

type signInMsg struct {
	email    string
	password string
}

type signUpMsg struct {
	req auth.SignUpRequest
}

type durationMsg struct {
	seconds   int64
	start     time.Time
	autosaved bool
}

type saveEntryMsg struct {
	draft store.Draft
}

type updateEntryMsg struct {
	entry store.TimeEntry
}

type editListMsg struct {
	kind   listKind
	remove bool
	name   string
}

type grantRoleMsg struct {
	email string
	role  string
}

type exportMsg struct {
	format export.Format
}

// Results of repository and auth calls.

type sessionResumedMsg struct {
	session *auth.Session
	err     error
}

type signedInMsg struct {
	session *auth.Session
	err     error
}

type signedUpMsg struct {
	profile *store.Profile
	err     error
}

type entriesLoadedMsg struct {
	entries []store.TimeEntry
	err     error
}

type listsLoadedMsg struct {
	clients []string
	tasks   []string
	err     error
}

type entrySavedMsg struct {
	entry *store.TimeEntry
	err   error
}

type entryUpdatedMsg struct {
	entry store.TimeEntry
	err   error
}

type listEditedMsg struct {
	editListMsg
	err error
}

type roleGrantedMsg struct {
	profile *store.Profile
	err     error
}

type exportDoneMsg struct {
	path string
	err  error
}

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

// authErrorText maps auth failures to the message shown under the form.
func authErrorText(err error, fallback string) string {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Msg
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrAlreadyRegistered):
		return "This email is already registered"
	case errors.Is(err, auth.ErrBadPassphrase):
		return "Incorrect administrator passphrase"
	default:
		return fallback
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
