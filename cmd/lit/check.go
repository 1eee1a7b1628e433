package main

import (
	"fmt"

	"github.com/litreview/lit/internal/batch"
	"github.com/litreview/lit/internal/crossref"
	"github.com/litreview/lit/internal/doiset"
	"github.com/litreview/lit/internal/export"
	"github.com/spf13/cobra"
)

var (
	checkFile        string
	checkOutput      string
	checkConcurrency int
)

// CheckHeader is the header of the validation CSV.
var CheckHeader = []string{"DOI", "Valid", "Title/Error"}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate DOIs against Crossref",
	Long: `Validate a list of DOIs (one per line) against the Crossref API.

A DOI is valid when Crossref resolves it; its registered title is reported.
Failures are recorded per DOI and never stop the run. Requests run one at a
time with a pause between them unless --concurrency is raised.

Examples:
  lit check -f dois.txt
  lit check -f dois.txt -o checked.csv -c 5 --human`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "File with one DOI per line (required)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "valid_dois.csv", "Output CSV file")
	checkCmd.Flags().IntVarP(&checkConcurrency, "concurrency", "c", 1, "Number of concurrent requests")
	checkCmd.MarkFlagRequired("file")
}

// CheckItem is the outcome for one DOI.
type CheckItem struct {
	DOI   string `json:"doi"`
	Valid bool   `json:"valid"`
	Title string `json:"title,omitempty"`
	Error string `json:"error,omitempty"`
}

// CheckResult is the JSON output for the check command.
type CheckResult struct {
	Total          int                       `json:"total"`
	Valid          int                       `json:"valid"`
	Invalid        int                       `json:"invalid"`
	ValidPercent   float64                   `json:"valid_percent"`
	InvalidPercent float64                   `json:"invalid_percent"`
	FailuresByKind map[batch.FailureKind]int `json:"failures_by_kind,omitempty"`
	Output         string                    `json:"output"`
	OutputError    string                    `json:"output_error,omitempty"`
	Items          []CheckItem               `json:"items"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	requireFile(checkFile, "DOI file")
	dois, err := doiset.ReadLinesFile(checkFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(dois) == 0 {
		exitWithError(ExitError, "no DOIs found in %s", checkFile)
	}

	settings := loadSettings()
	logger := newLogger()
	client := crossref.NewClient(settings.ValidatorAgent(), crossref.WithBaseURL(settings.CrossrefBaseURL))

	logger.Info("checking DOIs", "count", len(dois), "concurrency", checkConcurrency)
	results := batch.Run(cmd.Context(), dois, batch.Options{
		Concurrency: checkConcurrency,
		Delay:       settings.CheckDelay,
		Classify:    crossref.ClassifyLookup,
		OnDone: func(i int, f *batch.Failure) {
			progress := fmt.Sprintf("%d/%d", i+1, len(dois))
			if f != nil {
				logger.Debug("invalid", "n", progress, "doi", dois[i], "reason", f.Message)
				return
			}
			logger.Debug("valid", "n", progress, "doi", dois[i])
		},
	}, client.LookupDOI)

	summary := batch.Summarize(results)
	out := CheckResult{
		Total:          summary.Total,
		Valid:          summary.Succeeded,
		Invalid:        summary.Failed,
		ValidPercent:   summary.SucceededPercent(),
		InvalidPercent: summary.FailedPercent(),
		FailuresByKind: summary.ByKind,
		Output:         checkOutput,
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		item := CheckItem{DOI: r.Item, Valid: r.OK()}
		if r.OK() {
			item.Title = r.Value.Title
			rows = append(rows, []string{r.Item, "Yes", item.Title})
		} else {
			item.Error = r.Failure.Message
			rows = append(rows, []string{r.Item, "No", item.Error})
		}
		out.Items = append(out.Items, item)
	}

	writeErr := export.WriteCSVFile(checkOutput, CheckHeader, rows, true)
	out.OutputError = errorString(writeErr)

	if humanOutput {
		if verbose {
			for _, item := range out.Items {
				if item.Valid {
					fmt.Printf("✓ %s: %s\n", item.DOI, item.Title)
				} else {
					fmt.Printf("✗ %s: %s\n", item.DOI, item.Error)
				}
			}
			fmt.Println()
		}
		fmt.Printf("Total DOIs checked: %d\n", out.Total)
		fmt.Printf("Valid DOIs: %d (%.1f%%)\n", out.Valid, out.ValidPercent)
		fmt.Printf("Invalid DOIs: %d (%.1f%%)\n", out.Invalid, out.InvalidPercent)
		if writeErr == nil {
			fmt.Printf("Results saved to: %s\n", checkOutput)
		}
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}
