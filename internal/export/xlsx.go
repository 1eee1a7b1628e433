package export

import (
	"fmt"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/xuri/excelize/v2"
)

// EntriesSheet is the worksheet name used for entry exports.
const EntriesSheet = "Entries"

var xlsxEntriesHeader = []string{"DOI", "Title", "Abstract", "Keywords"}

// WriteEntriesXLSX saves entries as a single-sheet workbook at path.
func WriteEntriesXLSX(path string, entries []bibtex.Entry, mode bibtex.DOIMode) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{bibtex.NormalizeDOI(e.DOI, mode), e.Title, e.Abstract, e.Keywords})
	}
	return WriteXLSX(path, EntriesSheet, xlsxEntriesHeader, rows)
}

// WriteXLSX saves a header and rows as one worksheet.
func WriteXLSX(path, sheet string, header []string, rows [][]string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for i, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
