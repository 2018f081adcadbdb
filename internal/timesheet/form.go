// Package timesheet holds the rules shared by the entry form, the history
// view and the admin lists, independent of any rendering.
package timesheet

import (
	"errors"
	"slices"
	"time"

	"github.com/sadopc/tiempo/internal/store"
)

var (
	ErrMissingSelection = errors.New("please select client and task")
	ErrUnknownClient    = errors.New("client is not in the client list")
	ErrUnknownTask      = errors.New("task is not in the task list")
)

// EntryForm collects the client, task and description for a completed
// measurement.
type EntryForm struct {
	Client      string
	Task        string
	Description string
}

// Submit validates the form against the current lists and builds a draft for
// durationSecs ending at now. start, when non-nil, overrides the computed
// start time. On success the form's fields are cleared; on failure nothing
// changes.
func (f *EntryForm) Submit(clients, tasks []string, durationSecs int64, start *time.Time, now time.Time) (store.Draft, error) {
	if f.Client == "" || f.Task == "" {
		return store.Draft{}, ErrMissingSelection
	}
	if !slices.Contains(clients, f.Client) {
		return store.Draft{}, ErrUnknownClient
	}
	if !slices.Contains(tasks, f.Task) {
		return store.Draft{}, ErrUnknownTask
	}

	startTime := now.Add(-time.Duration(durationSecs) * time.Second)
	if start != nil {
		startTime = *start
	}
	d := store.Draft{
		Client:      f.Client,
		Task:        f.Task,
		Description: f.Description,
		StartTime:   startTime,
		EndTime:     now,
		Duration:    durationSecs,
	}
	f.Reset()
	return d, nil
}

// Reset clears every field.
func (f *EntryForm) Reset() {
	*f = EntryForm{}
}
