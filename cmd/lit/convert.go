package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/export"
	"github.com/litreview/lit/internal/storage"
	"github.com/spf13/cobra"
)

var (
	convertFormat string
	convertOutput string
	convertDOI    string
	convertPolicy string
)

// Output formats accepted by convert.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatBibTeX = "bib"
	FormatJSONL  = "jsonl"
	FormatSQLite = "sqlite"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.bib>...",
	Short: "Convert BibTeX files to CSV, XLSX, BibTeX, JSONL or SQLite",
	Long: `Convert BibTeX files to tabular or searchable formats.

Each input is written next to itself with the format's extension unless
--output is given (single input only). Entries need a DOI or a title to be
exported; --policy selects another inclusion rule. CSV output holds the DOI
as a https://doi.org/ URL and the cleaned title.

The sqlite format adds every input to one database (default from config)
that the search command queries. Re-converting a file replaces its rows.

Examples:
  lit convert papers.bib
  lit convert a.bib b.bib --format xlsx
  lit convert papers.bib --format sqlite -o refs.db
  lit convert papers.bib --doi bare --policy doi --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&convertFormat, "format", "F", FormatCSV, "Output format: csv, xlsx, bib, jsonl, sqlite")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output path (single input, or the database for sqlite)")
	convertCmd.Flags().StringVar(&convertDOI, "doi", "url", "DOI form in the output: url or bare")
	convertCmd.Flags().StringVar(&convertPolicy, "policy", bibtex.PolicyDOIOrTitle.String(), "Inclusion policy: all, doi, doi-or-title, doi-and-title, title-or-abstract")
}

// ConvertFileResult reports one converted input.
type ConvertFileResult struct {
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	Total     int           `json:"total_entries"`
	WithDOI   int           `json:"with_doi"`
	WithTitle int           `json:"with_title"`
	Exported  int           `json:"exported"`
	Sample    []SampleEntry `json:"sample,omitempty"`
	Error     string        `json:"error,omitempty"`

	outputFailed bool
}

// SampleEntry is an exported entry shown in verbose output.
type SampleEntry struct {
	DOI   string `json:"doi"`
	Title string `json:"title"`
}

// ConvertResult is the JSON output for the convert command.
type ConvertResult struct {
	Format    string              `json:"format"`
	Files     []ConvertFileResult `json:"files"`
	Converted int                 `json:"converted"`
	Attempted int                 `json:"attempted"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	format := strings.ToLower(convertFormat)
	switch format {
	case FormatCSV, FormatXLSX, FormatBibTeX, FormatJSONL, FormatSQLite:
	default:
		exitWithError(ExitError, "unknown format %q (valid: csv, xlsx, bib, jsonl, sqlite)", convertFormat)
	}
	mode, err := bibtex.ParseDOIMode(convertDOI)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	policy, err := bibtex.ParsePolicy(convertPolicy)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if convertOutput != "" && len(args) > 1 && format != FormatSQLite {
		exitWithError(ExitError, "--output needs a single input file")
	}

	var db *storage.DB
	if format == FormatSQLite {
		path := convertOutput
		if path == "" {
			path = loadSettings().Database
		}
		db, err = storage.OpenDB(path)
		if err != nil {
			exitWithError(ExitOutputError, "%v", err)
		}
		defer db.Close()
		convertOutput = path
	}

	result := ConvertResult{Format: format, Attempted: len(args)}
	anyOutputFailed := false
	for _, input := range args {
		fr := convertFile(logger, input, format, mode, policy, db)
		if fr.Error == "" {
			result.Converted++
			logger.Info("converted", "input", input, "exported", fr.Exported, "output", fr.Output)
		} else {
			logger.Error("conversion failed", "input", input, "err", fr.Error)
		}
		anyOutputFailed = anyOutputFailed || fr.outputFailed
		result.Files = append(result.Files, fr)
	}

	if humanOutput {
		printConvertHuman(result)
	} else {
		outputJSON(result)
	}

	switch {
	case anyOutputFailed:
		os.Exit(ExitOutputError)
	case result.Converted == 0:
		os.Exit(ExitDataError)
	}
	return nil
}

func convertFile(logger *log.Logger, input, format string, mode bibtex.DOIMode, policy bibtex.Policy, db *storage.DB) ConvertFileResult {
	fr := ConvertFileResult{Input: input}

	if _, err := os.Stat(input); err != nil {
		fr.Error = fmt.Sprintf("file '%s' not found", input)
		return fr
	}
	if !strings.EqualFold(filepath.Ext(input), ".bib") {
		logger.Warn("input does not have a .bib extension", "input", input)
	}

	all, err := bibtex.ParseFile(input, bibtex.PolicyAll)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	var entries []bibtex.Entry
	for _, e := range all {
		if e.HasDOI() {
			fr.WithDOI++
		}
		if e.HasTitle() {
			fr.WithTitle++
		}
		if policy.Accepts(e) {
			entries = append(entries, e)
		}
	}
	fr.Total = len(all)
	fr.Exported = len(entries)

	if verbose {
		for _, e := range entries[:min(SampleSize, len(entries))] {
			fr.Sample = append(fr.Sample, SampleEntry{
				DOI:   bibtex.NormalizeDOI(e.DOI, mode),
				Title: truncateString(e.Title, SampleTitleMaxLen),
			})
		}
	}

	fr.Output = convertOutput
	if fr.Output == "" {
		fr.Output = defaultConvertOutput(input, format)
	}
	if format != FormatSQLite && samePath(fr.Output, input) {
		fr.Error = fmt.Sprintf("output '%s' would overwrite the input; choose another path with -o", fr.Output)
		fr.outputFailed = true
		return fr
	}

	if err := writeConverted(fr.Output, input, format, entries, mode, db); err != nil {
		fr.Error = err.Error()
		fr.outputFailed = true
	}
	return fr
}

// defaultConvertOutput is <input>.<format>, or <input>.clean.bib when
// re-exporting a .bib file.
func defaultConvertOutput(input, format string) string {
	out := replaceExt(input, "."+format)
	if samePath(out, input) {
		out = replaceExt(input, ".clean."+format)
	}
	return out
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func writeConverted(output, input, format string, entries []bibtex.Entry, mode bibtex.DOIMode, db *storage.DB) error {
	switch format {
	case FormatXLSX:
		return export.WriteEntriesXLSX(output, entries, mode)
	case FormatJSONL:
		return storage.WriteJSONLFile(output, entries)
	case FormatSQLite:
		_, err := db.ReplaceEntries(input, entries)
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if format == FormatBibTeX {
		err = export.WriteBibTeX(f, export.RecordsFromEntries(entries, mode))
	} else {
		err = export.WriteEntriesCSV(f, entries, mode)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}

func printConvertHuman(r ConvertResult) {
	for _, f := range r.Files {
		fmt.Printf("Processing: %s\n", f.Input)
		if f.Error != "" && f.Total == 0 {
			fmt.Printf("  Error: %s\n\n", f.Error)
			continue
		}
		fmt.Printf("  Total entries found: %d\n", f.Total)
		fmt.Printf("  Entries with DOI: %d\n", f.WithDOI)
		fmt.Printf("  Entries with title: %d\n", f.WithTitle)
		fmt.Printf("  Valid entries exported: %d\n", f.Exported)
		if f.Error != "" {
			fmt.Printf("  Error: %s\n", f.Error)
		} else {
			fmt.Printf("  Output saved to: %s\n", f.Output)
		}
		if len(f.Sample) > 0 {
			fmt.Println("\n  Sample entries:")
			for i, s := range f.Sample {
				fmt.Printf("    %d. DOI: %s\n", i+1, s.DOI)
				fmt.Printf("       Title: %s\n", s.Title)
			}
		}
		fmt.Println()
	}
	if r.Attempted > 1 {
		fmt.Printf("Conversion summary: %d/%d files converted successfully\n", r.Converted, r.Attempted)
	}
}
