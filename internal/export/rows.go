// Package export writes the history list to spreadsheet, CSV and JSON files.
package export

import (
	"errors"
	"strconv"
	"time"

	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/store"
)

// ErrNoEntries is returned when there is nothing to export. No file is
// written in that case.
var ErrNoEntries = errors.New("no entries to export")

// Header is the column row shared by every tabular format.
var Header = []string{
	"Usuario",
	"Cliente",
	"Tarea",
	"Descripción",
	"Fecha Inicio",
	"Fecha Fin",
	"Duración",
	"Duración (Horas)",
}

const (
	sheetName       = "Registro de Tiempo"
	unknownUser     = "Sin especificar"
	dateTimeLayout  = "02/01/2006, 15:04"
	fileNamePrefix  = "registro-tiempo-"
	fileNameDateFmt = "2006-01-02"
)

// Format is an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FileName returns the default file name for an export made at now, using
// the UTC calendar date.
func FileName(f Format, now time.Time) string {
	return fileNamePrefix + now.UTC().Format(fileNameDateFmt) + "." + string(f)
}

// Write exports entries in format f to path.
func Write(f Format, entries []store.TimeEntry, fallbackUser, path string) error {
	switch f {
	case FormatCSV:
		return ToCSV(entries, fallbackUser, path)
	case FormatJSON:
		return ToJSON(entries, fallbackUser, path)
	default:
		return ToXLSX(entries, fallbackUser, path)
	}
}

// Rows renders one row per entry in the order given. The user column falls
// back to fallbackUser and then to "Sin especificar".
func Rows(entries []store.TimeEntry, fallbackUser string) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			userName(e, fallbackUser),
			e.Client,
			e.Task,
			e.Description,
			formatDateTime(e.StartTime),
			formatDateTime(e.EndTime),
			duration.FormatHoursMinutes(e.Duration),
			decimalHours(e.Duration),
		})
	}
	return rows
}

func userName(e store.TimeEntry, fallback string) string {
	switch {
	case e.Username != "":
		return e.Username
	case fallback != "":
		return fallback
	default:
		return unknownUser
	}
}

func formatDateTime(t time.Time) string {
	return t.Local().Format(dateTimeLayout)
}

func decimalHours(secs int64) string {
	return strconv.FormatFloat(float64(secs)/3600, 'f', 2, 64)
}
