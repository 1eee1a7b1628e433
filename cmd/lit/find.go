package main

import (
	"context"
	"fmt"

	"github.com/litreview/lit/internal/batch"
	"github.com/litreview/lit/internal/crossref"
	"github.com/litreview/lit/internal/doiset"
	"github.com/litreview/lit/internal/export"
	"github.com/spf13/cobra"
)

var (
	findFile        string
	findOutput      string
	findConcurrency int
)

// FindHeader is the header of the title search CSV.
var FindHeader = []string{"DOI", "URL", "Title"}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find DOIs for paper titles via Crossref",
	Long: `Search Crossref for each title in a file (one per line) and report the
DOI of the best-scoring candidate.

The DOI column holds the status ("DOI not found", "Error fetching DOI",
"Error processing response") when no DOI could be determined. A candidate
whose title neither contains nor is contained in the query is still
reported but flagged as unmatched in JSON output.

Examples:
  lit find -f titles.txt
  lit find -f titles.txt -o found.csv --human -v`,
	Args: cobra.NoArgs,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVarP(&findFile, "file", "f", "", "File with one title per line (required)")
	findCmd.Flags().StringVarP(&findOutput, "output", "o", "doi_results.csv", "Output CSV file")
	findCmd.Flags().IntVarP(&findConcurrency, "concurrency", "c", 1, "Number of concurrent requests")
	findCmd.MarkFlagRequired("file")
}

// FindItem is the outcome for one title.
type FindItem struct {
	Title      string  `json:"title"`
	DOI        string  `json:"doi,omitempty"`
	URL        string  `json:"url,omitempty"`
	FoundTitle string  `json:"found_title,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Matched    bool    `json:"matched"`
	Status     string  `json:"status,omitempty"`
}

// FindResult is the JSON output for the find command.
type FindResult struct {
	Total       int        `json:"total"`
	Found       int        `json:"found"`
	NotFound    int        `json:"not_found"`
	Errors      int        `json:"errors"`
	Output      string     `json:"output"`
	OutputError string     `json:"output_error,omitempty"`
	Items       []FindItem `json:"items"`
}

type titleMatch struct {
	work    crossref.Work
	matched bool
}

func runFind(cmd *cobra.Command, args []string) error {
	requireFile(findFile, "titles file")
	titles, err := doiset.ReadLinesFile(findFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(titles) == 0 {
		exitWithError(ExitError, "no titles found in %s", findFile)
	}

	settings := loadSettings()
	logger := newLogger()
	client := crossref.NewClient(settings.FinderAgent(), crossref.WithBaseURL(settings.CrossrefBaseURL))

	logger.Info("processing titles", "count", len(titles))
	results := batch.Run(cmd.Context(), titles, batch.Options{
		Concurrency: findConcurrency,
		Delay:       settings.FindDelay,
		Classify:    crossref.ClassifySearch,
		OnDone: func(i int, f *batch.Failure) {
			progress := fmt.Sprintf("%d/%d", i+1, len(titles))
			if f != nil {
				logger.Debug(f.Message, "n", progress, "title", truncateString(titles[i], SampleTitleMaxLen))
				return
			}
			logger.Debug("found DOI", "n", progress, "title", truncateString(titles[i], SampleTitleMaxLen))
		},
	}, func(ctx context.Context, title string) (titleMatch, error) {
		work, matched, err := client.FindDOI(ctx, title)
		return titleMatch{work: work, matched: matched}, err
	})

	out := FindResult{Total: len(results), Output: findOutput}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		item := FindItem{Title: r.Item}
		switch {
		case r.OK():
			out.Found++
			item.DOI = r.Value.work.DOI
			item.URL = r.Value.work.URL()
			item.FoundTitle = r.Value.work.Title
			item.Score = r.Value.work.Score
			item.Matched = r.Value.matched
			if !item.Matched {
				logger.Warn("best candidate title differs", "query", truncateString(r.Item, SampleTitleMaxLen), "found", truncateString(item.FoundTitle, SampleTitleMaxLen))
			}
			rows = append(rows, []string{item.DOI, item.URL, r.Item})
		case r.Failure.Kind == batch.FailureNotFound:
			out.NotFound++
			item.Status = r.Failure.Message
			rows = append(rows, []string{item.Status, "", r.Item})
		default:
			out.Errors++
			item.Status = r.Failure.Message
			rows = append(rows, []string{item.Status, "", r.Item})
		}
		out.Items = append(out.Items, item)
	}

	writeErr := export.WriteCSVFile(findOutput, FindHeader, rows, true)
	out.OutputError = errorString(writeErr)

	if humanOutput {
		if verbose {
			for i, item := range out.Items {
				fmt.Printf("[%d/%d] %s\n", i+1, out.Total, item.Title)
				if item.DOI != "" {
					fmt.Printf("  Found DOI: %s\n", item.DOI)
				} else {
					fmt.Printf("  %s\n", item.Status)
				}
			}
		}
		fmt.Println("\nSummary:")
		fmt.Printf("  Total titles processed: %d\n", out.Total)
		fmt.Printf("  DOIs found: %d\n", out.Found)
		fmt.Printf("  DOIs not found: %d\n", out.NotFound)
		fmt.Printf("  Errors: %d\n", out.Errors)
		if writeErr == nil {
			fmt.Printf("\nOutput saved to %s\n", findOutput)
		}
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}
