package timesheet

import (
	"slices"
	"strings"

	"github.com/sadopc/tiempo/internal/store"
)

// Summary aggregates a list of entries.
type Summary struct {
	Count        int
	TotalSeconds int64
	// Clients holds the distinct client names in first-seen order.
	Clients []string
}

// Summarize computes totals over entries.
func Summarize(entries []store.TimeEntry) Summary {
	var s Summary
	seen := make(map[string]bool)
	for _, e := range entries {
		s.Count++
		s.TotalSeconds += e.Duration
		if !seen[e.Client] {
			seen[e.Client] = true
			s.Clients = append(s.Clients, e.Client)
		}
	}
	return s
}

// SecondsByClient totals durations per client, keyed by name.
func SecondsByClient(entries []store.TimeEntry) map[string]int64 {
	totals := make(map[string]int64)
	for _, e := range entries {
		totals[e.Client] += e.Duration
	}
	return totals
}

// ReplaceEntry returns a copy of entries with the entry whose ID matches
// updated swapped for it, stamped with username. Order is preserved. When no
// ID matches the copy is returned unchanged.
func ReplaceEntry(entries []store.TimeEntry, updated store.TimeEntry, username string) []store.TimeEntry {
	out := slices.Clone(entries)
	for i := range out {
		if out[i].ID == updated.ID {
			updated.Username = username
			out[i] = updated
			break
		}
	}
	return out
}

// PrependEntry puts a freshly stored entry at the head of the list.
func PrependEntry(entries []store.TimeEntry, e store.TimeEntry, username string) []store.TimeEntry {
	e.Username = username
	return append([]store.TimeEntry{e}, entries...)
}

// StampUsername sets the display name on every entry in place.
func StampUsername(entries []store.TimeEntry, username string) {
	for i := range entries {
		entries[i].Username = username
	}
}

// NormalizeName trims name and reports whether it may be added to list: it
// must be non-empty and not already present.
func NormalizeName(list []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(list, name) {
		return name, false
	}
	return name, true
}
