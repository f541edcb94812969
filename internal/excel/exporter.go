package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/example/hanzibot/pkg/models"
)

// ExportEvents writes review events to an xlsx file in the layout
// ImportEvents reads with the default config.
func ExportEvents(path string, events []models.ReviewEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := []interface{}{"character", "type", "score", "date"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}

	for i, e := range events {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Character, string(e.Type), e.Score, e.DateString()}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %v", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %v", err)
	}
	return nil
}
