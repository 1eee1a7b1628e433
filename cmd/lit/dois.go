package main

import (
	"fmt"

	"github.com/litreview/lit/internal/doiset"
	"github.com/litreview/lit/internal/pdf"
	"github.com/spf13/cobra"
)

var (
	doisDir    string
	doisPDFDir string
	doisOutput string
)

// DOISampleSize is the number of DOIs shown by verbose output.
const DOISampleSize = 5

var doisCmd = &cobra.Command{
	Use:   "dois",
	Short: "Collect the unique DOIs of all BibTeX files in a directory",
	Long: `Collect the set of unique DOIs across every *.bib file in a directory.

DOIs are compared in bare form, so https://doi.org/ and dx.doi.org variants
of the same DOI count once. --pdf-dir adds DOIs found on the first pages of
the PDF files in another directory.

Examples:
  lit dois -d exports/
  lit dois -d exports/ -o all_dois.txt --human -v
  lit dois -d exports/ --pdf-dir papers/`,
	Args: cobra.NoArgs,
	RunE: runDOIs,
}

func init() {
	rootCmd.AddCommand(doisCmd)
	doisCmd.Flags().StringVarP(&doisDir, "directory", "d", ".", "Directory containing BibTeX files")
	doisCmd.Flags().StringVar(&doisPDFDir, "pdf-dir", "", "Directory of PDF files to scan for DOIs")
	doisCmd.Flags().StringVarP(&doisOutput, "output", "o", "", "File to save the sorted list of unique DOIs")
}

// DOIsResult is the JSON output for the dois command.
type DOIsResult struct {
	Directory        string               `json:"directory"`
	Files            int                  `json:"files"`
	Sources          []doiset.SourceStats `json:"sources"`
	Unique           int                  `json:"unique_dois"`
	Occurrences      int                  `json:"doi_occurrences"`
	Duplicates       int                  `json:"duplicates"`
	DuplicatePercent float64              `json:"duplicate_percent"`
	Output           string               `json:"output,omitempty"`
	OutputError      string               `json:"output_error,omitempty"`
	DOIs             []string             `json:"dois"`
}

func runDOIs(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	files, err := doiset.FindBibFiles(doisDir)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(files) == 0 && doisPDFDir == "" {
		exitWithError(ExitError, "no BibTeX files found in %s", doisDir)
	}
	logger.Info("found BibTeX files", "count", len(files), "dir", doisDir)

	coll := doiset.NewCollection()
	for _, f := range files {
		logger.Debug("processing", "file", f)
		if err := coll.AddBibFile(f); err != nil {
			logger.Error("skipping file", "file", f, "err", err)
		}
	}

	if doisPDFDir != "" {
		found, err := pdf.ScanDir(doisPDFDir)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		for _, f := range found {
			if f.Err != nil {
				logger.Warn("reading PDF", "file", f.Path, "err", f.Err)
			} else if f.DOI == "" {
				logger.Debug("no DOI in PDF", "file", f.Path)
			}
		}
		coll.Add(doisPDFDir+" (pdf)", len(found), pdf.DOIs(found))
	}

	sorted := coll.All.Sorted()
	out := DOIsResult{
		Directory:        doisDir,
		Files:            len(files),
		Sources:          coll.SortedSources(),
		Unique:           coll.All.Len(),
		Occurrences:      coll.TotalOccurrences(),
		Duplicates:       coll.Duplicates(),
		DuplicatePercent: coll.DuplicatePercent(),
		Output:           doisOutput,
		DOIs:             sorted,
	}

	var writeErr error
	if doisOutput != "" {
		writeErr = coll.All.WriteListFile(doisOutput)
		out.OutputError = errorString(writeErr)
	}

	if humanOutput {
		printDOIsHuman(out, writeErr)
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}

func printDOIsHuman(r DOIsResult, writeErr error) {
	fmt.Printf("Found %d BibTeX files\n", r.Files)
	fmt.Printf("\nResults Summary:\n")
	fmt.Printf("----------------\n")
	fmt.Printf("Total unique DOIs found: %d\n", r.Unique)
	fmt.Printf("DOI occurrences: %d (%d duplicates, %.1f%%)\n", r.Occurrences, r.Duplicates, r.DuplicatePercent)

	if verbose {
		fmt.Println("\nDOIs per file:")
		for _, s := range r.Sources {
			fmt.Printf("  %s: %d DOIs\n", s.Name, s.Unique)
		}
	}

	if r.Output != "" && writeErr == nil {
		fmt.Printf("\nUnique DOIs saved to: %s\n", r.Output)
	}

	if verbose && len(r.DOIs) > 0 {
		n := min(DOISampleSize, len(r.DOIs))
		fmt.Printf("\nSample of DOIs (first %d):\n", n)
		for _, d := range r.DOIs[:n] {
			fmt.Printf("  %s\n", d)
		}
	}
}
