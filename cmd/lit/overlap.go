package main

import (
	"fmt"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/doiset"
	"github.com/spf13/cobra"
)

var (
	overlapDOIFile string
	overlapBibTeX  string
)

var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Compare a DOI list with the DOIs of a BibTeX file",
	Long: `Report how many DOIs of a list also appear in a BibTeX file.

Percentages are relative to the DOI list. Verbose output lists the
overlapping and missing DOIs in sorted order.

Examples:
  lit overlap -d wanted.txt -b library.bib
  lit overlap -d wanted.txt -b library.bib --human -v`,
	Args: cobra.NoArgs,
	RunE: runOverlap,
}

func init() {
	rootCmd.AddCommand(overlapCmd)
	overlapCmd.Flags().StringVarP(&overlapDOIFile, "doi-file", "d", "", "File containing DOIs, one per line (required)")
	overlapCmd.Flags().StringVarP(&overlapBibTeX, "bibtex", "b", "", "BibTeX file to check for DOIs (required)")
	overlapCmd.MarkFlagRequired("doi-file")
	overlapCmd.MarkFlagRequired("bibtex")
}

// OverlapResult is the JSON output for the overlap command.
type OverlapResult struct {
	InputDOIs      int      `json:"input_dois"`
	BibTeXDOIs     int      `json:"bibtex_dois"`
	Overlapping    int      `json:"overlapping"`
	OverlapPercent float64  `json:"overlap_percent"`
	Missing        int      `json:"missing"`
	MissingPercent float64  `json:"missing_percent"`
	OverlapDOIs    []string `json:"overlap_dois,omitempty"`
	MissingDOIs    []string `json:"missing_dois,omitempty"`
}

func runOverlap(cmd *cobra.Command, args []string) error {
	requireFile(overlapDOIFile, "DOI file")
	target, err := doiset.ReadListFile(overlapDOIFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if target.Len() == 0 {
		exitWithError(ExitError, "no DOIs found in %s", overlapDOIFile)
	}

	entries := mustLoadEntries(overlapBibTeX, "BibTeX file", bibtex.PolicyDOI)
	comparison := doiset.FromEntries(entries)
	if comparison.Len() == 0 {
		exitWithError(ExitError, "no DOIs found in %s", overlapBibTeX)
	}

	report := doiset.Compare(target, comparison)
	out := OverlapResult{
		InputDOIs:      target.Len(),
		BibTeXDOIs:     comparison.Len(),
		Overlapping:    report.Overlap.Len(),
		OverlapPercent: report.CoveragePercent(),
		Missing:        report.Missing.Len(),
		MissingPercent: report.MissingPercent(),
	}
	if verbose {
		out.OverlapDOIs = report.Overlap.Sorted()
		out.MissingDOIs = report.Missing.Sorted()
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}

	fmt.Println("Results Summary:")
	fmt.Println("----------------")
	fmt.Printf("DOIs in input file: %d\n", out.InputDOIs)
	fmt.Printf("DOIs in BibTeX file: %d\n", out.BibTeXDOIs)
	fmt.Printf("Overlapping DOIs: %d (%.2f%%)\n", out.Overlapping, out.OverlapPercent)
	fmt.Printf("Missing DOIs: %d (%.2f%%)\n", out.Missing, out.MissingPercent)
	if verbose {
		if len(out.OverlapDOIs) > 0 {
			fmt.Println("\nOverlapping DOIs:")
			for _, d := range out.OverlapDOIs {
				fmt.Printf("  %s\n", d)
			}
		}
		if len(out.MissingDOIs) > 0 {
			fmt.Println("\nMissing DOIs:")
			for _, d := range out.MissingDOIs {
				fmt.Printf("  %s\n", d)
			}
		}
	}
	return nil
}
