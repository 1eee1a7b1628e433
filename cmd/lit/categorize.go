package main

import (
	"context"
	"fmt"
	"time"

	"github.com/litreview/lit/internal/batch"
	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/doiset"
	"github.com/litreview/lit/internal/llm"
	"github.com/spf13/cobra"
)

var (
	categorizeDOIFile string
	categorizeFile    string
	categorizeOutput  string
	categorizeModel   string
	categorizeDelay   float64
)

// CategorizeHeader is the header of the categorization CSV.
var CategorizeHeader = []string{"DOI", "Title", "Category", "Description"}

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Assign a CS category and a short description to papers",
	Long: `Ask a chat-completion model for the computer science category of each
paper and a one or two sentence description of its contribution.

Papers are the BibTeX entries with a title and a DOI listed in --doi-file.
Requires OPENAI_API_KEY (environment or .env). A failed call is recorded as
"Error: <message>" for that paper and the run continues.

Examples:
  lit categorize --doi-file selected.txt -f library.bib -o categories.csv
  lit categorize --doi-file selected.txt -f library.bib -o categories.csv -m gpt-4o-mini --delay 0.5 --human`,
	Args: cobra.NoArgs,
	RunE: runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
	categorizeCmd.Flags().StringVar(&categorizeDOIFile, "doi-file", "", "File with the DOIs to process, one per line (required)")
	categorizeCmd.Flags().StringVarP(&categorizeFile, "file", "f", "", "BibTeX file to analyze (required)")
	categorizeCmd.Flags().StringVarP(&categorizeOutput, "output", "o", "", "Output CSV file (required)")
	categorizeCmd.Flags().StringVarP(&categorizeModel, "model", "m", "", "Model to use (default from config, gpt-4o)")
	categorizeCmd.Flags().Float64Var(&categorizeDelay, "delay", 1.0, "Delay between API calls in seconds")
	categorizeCmd.MarkFlagRequired("doi-file")
	categorizeCmd.MarkFlagRequired("file")
	categorizeCmd.MarkFlagRequired("output")
}

// CategorizedPaper is the outcome for one paper.
type CategorizedPaper struct {
	DOI         string `json:"doi"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Failed      bool   `json:"failed,omitempty"`
}

// CategorizeResult is the JSON output for the categorize command.
type CategorizeResult struct {
	Model        string             `json:"model"`
	Papers       int                `json:"papers"`
	Failed       int                `json:"failed"`
	Duration     string             `json:"duration"`
	Distribution []llm.LabelCount   `json:"distribution"`
	Output       string             `json:"output"`
	OutputError  string             `json:"output_error,omitempty"`
	Results      []CategorizedPaper `json:"results"`
}

func runCategorize(cmd *cobra.Command, args []string) error {
	requireFile(categorizeFile, "BibTeX file")
	requireFile(categorizeDOIFile, "DOI filter file")

	settings := loadSettings()
	logger := newLogger()
	client := newLLMClient(settings, categorizeModel)

	filter, err := doiset.ReadListFile(categorizeDOIFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if filter.Len() == 0 {
		exitWithError(ExitError, "no valid DOIs found in filter file %s", categorizeDOIFile)
	}

	entries := mustLoadEntries(categorizeFile, "BibTeX file", bibtex.PolicyDOIAndTitle)
	var papers []llm.Paper
	for _, e := range entries {
		if filter.Has(e.DOI) {
			papers = append(papers, llm.PaperFromEntry(e))
		}
	}
	if len(papers) == 0 {
		exitWithError(ExitError, "no papers matching DOI filter found")
	}
	logger.Info("categorizing papers", "papers", len(papers), "model", client.Model())

	start := time.Now()
	results := batch.Run(cmd.Context(), papers, batch.Options{
		Delay: llmDelay(settings, categorizeDelay, cmd.Flags().Changed("delay")),
		OnDone: func(i int, f *batch.Failure) {
			done := i + 1
			keyvals := []interface{}{
				"n", fmt.Sprintf("%d/%d", done, len(papers)),
				"percent", fmt.Sprintf("%.1f", 100*float64(done)/float64(len(papers))),
				"eta", eta(done, len(papers), time.Since(start)).Round(time.Second),
				"title", papers[i].ShortTitle(),
			}
			if f != nil {
				logger.Warn("categorization failed", append(keyvals, "err", f.Message)...)
				return
			}
			logger.Info("categorized", keyvals...)
		},
	}, func(ctx context.Context, p llm.Paper) (llm.Categorization, error) {
		return llm.Categorize(ctx, client, p)
	})
	elapsed := time.Since(start)

	out := CategorizeResult{
		Model:    client.Model(),
		Papers:   len(results),
		Duration: formatDuration(elapsed),
		Output:   categorizeOutput,
	}
	rows := make([][]string, 0, len(results))
	labels := make([]string, 0, len(results))
	for _, r := range results {
		cp := CategorizedPaper{DOI: r.Item.DOI, Title: r.Item.Title}
		if r.OK() {
			cp.Category = r.Value.Category
			cp.Description = r.Value.Description
		} else {
			out.Failed++
			cp.Failed = true
			cp.Category = r.Failure.Message
			cp.Description = r.Failure.Message
		}
		rows = append(rows, []string{cp.DOI, cp.Title, cp.Category, cp.Description})
		labels = append(labels, cp.Category)
		out.Results = append(out.Results, cp)
	}
	out.Distribution = llm.Distribution(labels)

	writeErr := writeLabelsCSV(categorizeOutput, CategorizeHeader, rows)
	out.OutputError = errorString(writeErr)

	if humanOutput {
		if verbose {
			for i, cp := range out.Results {
				fmt.Printf("[%d/%d] %s\n", i+1, out.Papers, truncateString(cp.Title, SampleTitleMaxLen))
				fmt.Printf("  Category: %s\n", cp.Category)
				fmt.Printf("  Description: %s\n\n", cp.Description)
			}
		}
		fmt.Printf("Processing completed in %s\n", out.Duration)
		if writeErr == nil {
			fmt.Printf("\nResults saved to: %s\n", out.Output)
		}
		printDistributionHuman("Category Summary", 50, out.Distribution)
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}
