package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	User        string `json:"user"`
	Client      string `json:"client"`
	Task        string `json:"task"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Hours       string `json:"hours"`
}

func ToJSON(entries []store.TimeEntry, fallbackUser, path string) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			User:        userName(e, fallbackUser),
			Client:      e.Client,
			Task:        e.Task,
			Description: e.Description,
			StartTime:   e.StartTime.Local().Format(time.RFC3339),
			EndTime:     e.EndTime.Local().Format(time.RFC3339),
			DurationSec: e.Duration,
			Duration:    duration.FormatHoursMinutes(e.Duration),
			Hours:       decimalHours(e.Duration),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
