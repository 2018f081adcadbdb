package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/export"
	"github.com/sadopc/tiempo/internal/store"
	"github.com/sadopc/tiempo/internal/timesheet"
)

// editLayout is the date format of the edit dialog's start and end fields.
const editLayout = "2006-01-02 15:04"

var exportFormats = []struct {
	label  string
	format export.Format
}{
	{"Excel (.xlsx)", export.FormatXLSX},
	{"CSV", export.FormatCSV},
	{"JSON", export.FormatJSON},
}

// historyModel lists the session's entries, charts hours per client and
// hosts the edit dialog and the export picker.
type historyModel struct {
	state  *appState
	width  int
	height int

	cursor int

	picking      bool
	pickerCursor int

	formActive bool
	form       *huh.Form
	editing    store.TimeEntry

	// Form field pointers (survive value copies)
	client      *string
	task        *string
	description *string
	start       *string
	end         *string
	hours       *string
}

func newHistoryModel(state *appState) historyModel {
	var client, task, desc, start, end, hours string
	return historyModel{
		state:       state,
		client:      &client,
		task:        &task,
		description: &desc,
		start:       &start,
		end:         &end,
		hours:       &hours,
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

func (h *historyModel) reset() {
	h.cursor = 0
	h.picking = false
	h.formActive = false
	h.form = nil
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}
	if h.picking {
		return h.updatePicker(km)
	}

	n := len(h.state.entries)
	if h.cursor >= n {
		h.cursor = max(0, n-1)
	}

	switch {
	case key.Matches(km, keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(km, keys.Down):
		if h.cursor < n-1 {
			h.cursor++
		}
	case key.Matches(km, keys.Edit):
		if n > 0 {
			return h.showEditForm(h.state.entries[h.cursor])
		}
	case key.Matches(km, keys.Export):
		h.picking = true
		h.pickerCursor = 0
	}
	return h, nil
}

func (h historyModel) updatePicker(msg tea.KeyMsg) (historyModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.pickerCursor > 0 {
			h.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if h.pickerCursor < len(exportFormats)-1 {
			h.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		h.picking = false
		f := exportFormats[h.pickerCursor].format
		return h, func() tea.Msg { return exportMsg{format: f} }
	case key.Matches(msg, keys.Back):
		h.picking = false
	}
	return h, nil
}

func (h historyModel) showEditForm(e store.TimeEntry) (historyModel, tea.Cmd) {
	h.editing = e
	*h.client = e.Client
	*h.task = e.Task
	*h.description = e.Description
	*h.start = e.StartTime.Local().Format(editLayout)
	*h.end = e.EndTime.Local().Format(editLayout)
	*h.hours = duration.SecondsToDecimalHoursString(e.Duration)

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Client").Options(nameOptions("Select a client", h.state.clients, e.Client)...).Value(h.client),
			huh.NewSelect[string]().Title("Task").Options(nameOptions("Select a task", h.state.tasks, e.Task)...).Value(h.task),
			huh.NewText().Title("Description").Lines(3).Value(h.description),
		),
		huh.NewGroup(
			huh.NewInput().Title("Start").Description("YYYY-MM-DD HH:MM").Value(h.start).Validate(validateDateTime),
			huh.NewInput().Title("End").Description("YYYY-MM-DD HH:MM").Value(h.end).Validate(validateDateTime),
			huh.NewInput().Title("Duration (hours)").Description("H.MM").Value(h.hours).Validate(validateHours),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

// nameOptions lists names behind an empty placeholder. current is kept as an
// option even when it has been removed from the list since the entry was
// saved.
func nameOptions(placeholder string, names []string, current string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(placeholder, "")}
	opts = append(opts, huh.NewOptions(names...)...)
	if current != "" && !slices.Contains(names, current) {
		opts = append(opts, huh.NewOption(current, current))
	}
	return opts
}

func validateDateTime(s string) error {
	if _, err := time.ParseInLocation(editLayout, strings.TrimSpace(s), time.Local); err != nil {
		return errors.New("use YYYY-MM-DD HH:MM")
	}
	return nil
}

func validateHours(s string) error {
	if _, err := duration.DecimalHoursStringToSeconds(s); err != nil {
		return errors.New("use H.MM, for example 1.30")
	}
	return nil
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			h.formActive = false
			h.form = nil
			return h, nil
		}
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	switch h.form.State {
	case huh.StateAborted:
		h.formActive = false
		h.form = nil
		return h, nil
	case huh.StateCompleted:
		h.formActive = false
		h.form = nil
		return h, h.saveEdit()
	}
	return h, cmd
}

// saveEdit builds the replacement entry from the dialog fields. Duration is
// never recomputed from start and end. Fields still showing their prefilled
// text keep the stored value, since H.MM and minute timestamps do not
// round-trip.
func (h historyModel) saveEdit() tea.Cmd {
	if *h.client == "" || *h.task == "" {
		return errorCmd("Please select client and task")
	}
	start, err := editedTime(*h.start, h.editing.StartTime)
	if err != nil {
		return errorCmd("Invalid start time")
	}
	end, err := editedTime(*h.end, h.editing.EndTime)
	if err != nil {
		return errorCmd("Invalid end time")
	}
	secs := h.editing.Duration
	if hours := strings.TrimSpace(*h.hours); hours != duration.SecondsToDecimalHoursString(secs) {
		parsed, err := duration.DecimalHoursStringToSeconds(hours)
		if err != nil {
			return errorCmd("Invalid duration")
		}
		secs = parsed
	}

	e := h.editing
	e.Client = *h.client
	e.Task = *h.task
	e.Description = strings.TrimSpace(*h.description)
	e.StartTime = start
	e.EndTime = end
	e.Duration = secs
	return func() tea.Msg { return updateEntryMsg{entry: e} }
}

// editedTime parses field unless it still shows orig.
func editedTime(field string, orig time.Time) (time.Time, error) {
	field = strings.TrimSpace(field)
	if field == orig.Local().Format(editLayout) {
		return orig, nil
	}
	return time.ParseInLocation(editLayout, field, time.Local)
}

func (h historyModel) view() string {
	w := h.width - 4
	if w < 20 {
		return "Terminal too small"
	}

	if h.formActive && h.form != nil {
		title := titleStyle.Render("Edit Entry")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", h.form.View()),
		)
	}
	if h.picking {
		return h.renderExportPicker(w)
	}

	entries := h.state.entries
	sum := timesheet.Summarize(entries)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d entries · %s · %d clients",
			sum.Count, duration.FormatHoursMinutes(sum.TotalSeconds), len(sum.Clients))),
	)

	if len(entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("No entries recorded yet"),
		))
	}

	nav := mutedStyle.Render("  ↑/↓: select  enter: edit  e: export")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "",
		h.renderChart(w-6, sum),
		"",
		h.renderTable(w-6),
		"",
		nav,
	))
}

// renderChart draws total hours per client in first-seen order.
func (h historyModel) renderChart(w int, sum timesheet.Summary) string {
	if w < 20 {
		w = 20
	}
	chartHeight := 8
	if h.height > 36 {
		chartHeight = 12
	}

	totals := timesheet.SecondsByClient(h.state.entries)
	chart := barchart.New(w, chartHeight)

	var bars []barchart.BarData
	for i, client := range sum.Clients {
		style := lipgloss.NewStyle().Foreground(chartPalette[i%len(chartPalette)])
		bars = append(bars, barchart.BarData{
			Label: truncate(client, 10),
			Values: []barchart.BarValue{{
				Name:  client,
				Value: float64(totals[client]) / 3600.0,
				Style: style,
			}},
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

// visibleRows is how many table rows fit below the chart.
func (h historyModel) visibleRows() int {
	return max(3, h.height-24)
}

func (h historyModel) renderTable(w int) string {
	entries := h.state.entries
	rowsShown := h.visibleRows()

	offset := 0
	if h.cursor >= rowsShown {
		offset = h.cursor - rowsShown + 1
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-17s %-16s %-16s %-22s %9s %6s",
		"Start", "Client", "Task", "Description", "Duration", "Hours")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-2, 92))))

	for i := offset; i < len(entries) && i < offset+rowsShown; i++ {
		e := entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-17s %-16s %-16s %-22s %9s %6s",
			cursor,
			e.StartTime.Local().Format("02/01/2006 15:04"),
			truncate(e.Client, 16),
			truncate(e.Task, 16),
			truncate(e.Description, 22),
			duration.FormatHoursMinutes(e.Duration),
			duration.SecondsToDecimalHoursString(e.Duration),
		)))
	}
	return strings.Join(rows, "\n")
}

func (h historyModel) renderExportPicker(w int) string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == h.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f.label))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d entries  enter: export  esc: cancel", len(h.state.entries))))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
