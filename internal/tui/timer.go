package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/stopwatch"
	"github.com/sadopc/tiempo/internal/timesheet"
)

const recentEntries = 5

// timerModel drives the stopwatch and hosts the entry and manual-time forms.
type timerModel struct {
	state  *appState
	now    func() time.Time
	width  int
	height int

	formActive bool
	form       *huh.Form
	formType   string // "entry", "manual"

	// Form field pointers (survive value copies)
	client      *string
	task        *string
	description *string
	hours       *string
	minutes     *string
	seconds     *string
}

func newTimerModel(state *appState, now func() time.Time) timerModel {
	var client, task, desc, h, m, s string
	return timerModel{
		state:       state,
		now:         now,
		client:      &client,
		task:        &task,
		description: &desc,
		hours:       &h,
		minutes:     &m,
		seconds:     &s,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// clearForm drops any half-filled input, used on sign-out.
func (t *timerModel) clearForm() {
	t.formActive = false
	t.form = nil
	*t.client, *t.task, *t.description = "", "", ""
	*t.hours, *t.minutes, *t.seconds = "", "", ""
}

func report(msg durationMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	w := t.state.watch
	switch {
	case key.Matches(km, keys.Start):
		if w.Running() {
			return t, nil
		}
		w.Start()
		return t, statusCmd("Timer started")

	case key.Matches(km, keys.Pause):
		switch w.State() {
		case stopwatch.Running:
			w.Pause()
			return t, statusCmd("Timer paused")
		case stopwatch.Paused:
			w.Start()
			return t, statusCmd("Timer resumed")
		}
		return t, nil

	case key.Matches(km, keys.Finalize):
		secs := w.Finalize()
		if secs == 0 {
			return t, statusCmd("Nothing to finalize")
		}
		start := t.now().Add(-time.Duration(secs) * time.Second)
		return t, report(durationMsg{seconds: secs, start: start})

	case key.Matches(km, keys.Stop):
		r, ok := w.StopAndSave()
		if !ok {
			return t, statusCmd("Nothing to record")
		}
		var cmd tea.Cmd
		t, cmd = t.showEntryForm()
		return t, tea.Batch(report(durationMsg{seconds: r.Elapsed, start: r.Anchor, autosaved: true}), cmd)

	case key.Matches(km, keys.Reset):
		w.Reset()
		return t, statusCmd("Timer reset")

	case key.Matches(km, keys.Manual):
		return t.showManualForm()

	case key.Matches(km, keys.Enter):
		return t.showEntryForm()
	}
	return t, nil
}

func (t timerModel) showEntryForm() (timerModel, tea.Cmd) {
	clientOptions := append(
		[]huh.Option[string]{huh.NewOption("Select a client", "")},
		huh.NewOptions(t.state.clients...)...,
	)
	taskOptions := append(
		[]huh.Option[string]{huh.NewOption("Select a task", "")},
		huh.NewOptions(t.state.tasks...)...,
	)

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Client").Options(clientOptions...).Value(t.client),
			huh.NewSelect[string]().Title("Task").Options(taskOptions...).Value(t.task),
			huh.NewText().Title("Description").Lines(3).Value(t.description),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formType = "entry"
	t.formActive = true
	return t, t.form.Init()
}

func (t timerModel) showManualForm() (timerModel, tea.Cmd) {
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hours").Placeholder("0").Value(t.hours).Validate(validateCount),
			huh.NewInput().Title("Minutes").Placeholder("0").Value(t.minutes).Validate(validateCount),
			huh.NewInput().Title("Seconds").Placeholder("0").Value(t.seconds).Validate(validateCount),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formType = "manual"
	t.formActive = true
	return t, t.form.Init()
}

func (t timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	switch t.form.State {
	case huh.StateAborted:
		t.formActive = false
		t.form = nil
		return t, nil
	case huh.StateCompleted:
		t.formActive = false
		t.form = nil
		if t.formType == "manual" {
			return t, t.addManual()
		}
		return t, t.submitEntry()
	}

	return t, cmd
}

// submitEntry validates the form against the shell's lists and hands the
// draft to the shell for saving.
func (t timerModel) submitEntry() tea.Cmd {
	form := timesheet.EntryForm{
		Client:      *t.client,
		Task:        *t.task,
		Description: strings.TrimSpace(*t.description),
	}
	draft, err := form.Submit(t.state.clients, t.state.tasks, t.state.draftDuration, t.state.draftStart, t.now())
	if errors.Is(err, timesheet.ErrMissingSelection) {
		return errorCmd("Please select client and task")
	}
	if err != nil {
		return errorCmd("The selected client or task no longer exists")
	}
	*t.client, *t.task, *t.description = form.Client, form.Task, form.Description
	return func() tea.Msg { return saveEntryMsg{draft: draft} }
}

func (t timerModel) addManual() tea.Cmd {
	h, _ := parseCount(*t.hours)
	m, _ := parseCount(*t.minutes)
	s, _ := parseCount(*t.seconds)
	if !t.state.watch.AddManual(h, m, s) {
		return statusCmd("No time added")
	}
	*t.hours, *t.minutes, *t.seconds = "", "", ""
	return statusCmd("Time added")
}

func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func validateCount(s string) error {
	if _, err := parseCount(s); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}

func (t timerModel) view() string {
	if t.width < 20 {
		return "Terminal too small"
	}

	contentWidth := t.width - 4

	if t.formActive && t.form != nil {
		return t.renderForm(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		t.renderTimerPanel(contentWidth),
		t.renderDraftPanel(contentWidth),
		t.renderRecentPanel(contentWidth),
	)
}

func (t timerModel) renderForm(w int) string {
	title := titleStyle.Render("Save Entry")
	info := mutedStyle.Render(fmt.Sprintf("Duration %s (%s h)",
		duration.FormatHoursMinutes(t.state.draftDuration),
		duration.SecondsToDecimalHoursString(t.state.draftDuration)))
	if t.formType == "manual" {
		title = titleStyle.Render("Add Time")
		info = mutedStyle.Render("Added to the stopwatch. Leave a field empty for zero.")
	}
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, info, "", t.form.View()),
	)
}

func (t timerModel) renderTimerPanel(w int) string {
	watch := t.state.watch
	clock := duration.FormatClock(watch.Elapsed())

	var timeDisplay, indicator, detail string
	switch watch.State() {
	case stopwatch.Running:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(clock)
		indicator = successStyle.Render("●  RUNNING")
	case stopwatch.Paused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(clock)
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(clock)
		indicator = mutedStyle.Render("■  STOPPED")
		detail = mutedStyle.Render("Press s to start tracking")
	}

	if anchor, ok := watch.Anchor(); ok {
		detail = highlightStyle.Render("Started " + anchor.Local().Format("15:04"))
	}

	rows := []string{timeDisplay, indicator, detail}
	if !watch.Running() {
		if left := t.state.remind.Remaining(t.now()); left > 0 {
			rows = append(rows, mutedStyle.Render("Next reminder in "+left.Round(time.Minute).String()))
		}
	}

	style := panelStyle
	if watch.State() != stopwatch.Idle {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (t timerModel) renderDraftPanel(w int) string {
	title := titleStyle.Render("Pending Entry")
	if t.state.draftDuration == 0 && t.state.draftStart == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Finalize (f) or stop (x) the timer to record time"),
		))
	}

	line := fmt.Sprintf("%s  %s h",
		highlightStyle.Render(duration.FormatHoursMinutes(t.state.draftDuration)),
		duration.SecondsToDecimalHoursString(t.state.draftDuration))
	if t.state.draftStart != nil {
		line += mutedStyle.Render("  from " + t.state.draftStart.Local().Format("15:04"))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		line,
		mutedStyle.Render("Press enter to save it"),
	))
}

func (t timerModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(t.state.entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		))
	}

	rows := []string{title}
	for i, e := range t.state.entries {
		if i == recentEntries {
			break
		}
		rows = append(rows, fmt.Sprintf("  ✓ %s  %-28s %s",
			e.StartTime.Local().Format("02/01 15:04"),
			truncate(e.Client+" / "+e.Task, 28),
			duration.FormatClock(e.Duration),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
