package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
)

// EntriesHeader is the header of an entry listing.
var EntriesHeader = []string{"DOI", "Title"}

// WriteCSV writes header and rows. With quoteAll every field is quoted,
// otherwise fields are quoted only when needed.
func WriteCSV(w io.Writer, header []string, rows [][]string, quoteAll bool) error {
	if quoteAll {
		return writeQuoted(w, header, rows)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// WriteCSVFile creates path and writes the table into it.
func WriteCSVFile(path string, header []string, rows [][]string, quoteAll bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, header, rows, quoteAll); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeQuoted(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	for _, row := range append([][]string{header}, rows...) {
		for i, field := range row {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// EntryRows returns one DOI,Title row per entry with the DOI in mode.
func EntryRows(entries []bibtex.Entry, mode bibtex.DOIMode) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{bibtex.NormalizeDOI(e.DOI, mode), e.Title})
	}
	return rows
}

// WriteEntriesCSV writes a DOI,Title listing.
func WriteEntriesCSV(w io.Writer, entries []bibtex.Entry, mode bibtex.DOIMode) error {
	return WriteCSV(w, EntriesHeader, EntryRows(entries, mode), false)
}
