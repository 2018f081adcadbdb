package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/tiempo/internal/store"
)

func ToCSV(entries []store.TimeEntry, fallbackUser, path string) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(Header); err != nil {
		return err
	}
	for _, row := range Rows(entries, fallbackUser) {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
