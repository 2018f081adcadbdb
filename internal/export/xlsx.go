package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/tiempo/internal/store"
)

// ToXLSX writes a workbook with a single "Registro de Tiempo" sheet.
func ToXLSX(entries []store.TimeEntry, fallbackUser, path string) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	rows := append([][]string{Header}, Rows(entries, fallbackUser)...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx file: %w", err)
	}
	return nil
}
