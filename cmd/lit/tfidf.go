package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/tfidf"
	"github.com/spf13/cobra"
)

var (
	tfidfFile   string
	tfidfOutput string
	tfidfMinDF  int
	tfidfMaxDF  float64
	tfidfTopN   int
)

// Verbose tfidf output shows the top terms of the first documents.
const (
	tfidfPreviewDocs  = 10
	tfidfPreviewTerms = 5
)

var tfidfCmd = &cobra.Command{
	Use:   "tfidf",
	Short: "Score terms of BibTeX entries with TF-IDF",
	Long: `Treat the title, abstract and keywords of each entry as a document and
score its terms with TF-IDF (term frequency times ln(N/df)).

Terms must appear in at least --min-df documents and in no more than
--max-df times the number of documents. Stopwords come from the config file
when set there, otherwise from the built-in English list. A detailed report
is written to --output.

Examples:
  lit tfidf -f library.bib --human
  lit tfidf -f library.bib --min-df 3 --max-df 0.5 --top-n 15 -o terms.txt`,
	Args: cobra.NoArgs,
	RunE: runTFIDF,
}

func init() {
	rootCmd.AddCommand(tfidfCmd)
	tfidfCmd.Flags().StringVarP(&tfidfFile, "file", "f", "", "BibTeX file to analyze (required)")
	tfidfCmd.Flags().StringVarP(&tfidfOutput, "output", "o", "tfidf_results.txt", "Report file")
	tfidfCmd.Flags().IntVar(&tfidfMinDF, "min-df", tfidf.DefaultMinDF, "Minimum number of documents a term must appear in")
	tfidfCmd.Flags().Float64Var(&tfidfMaxDF, "max-df", tfidf.DefaultMaxDFRatio, "Maximum share of documents a term may appear in")
	tfidfCmd.Flags().IntVar(&tfidfTopN, "top-n", tfidf.DefaultTopN, "Number of top terms per document in the report")
	tfidfCmd.MarkFlagRequired("file")
}

// TFIDFDocument is a document preview in verbose output.
type TFIDFDocument struct {
	Title    string            `json:"title,omitempty"`
	DOI      string            `json:"doi,omitempty"`
	TopTerms []tfidf.TermScore `json:"top_terms"`
}

// TFIDFResult is the JSON output for the tfidf command.
type TFIDFResult struct {
	Documents   int               `json:"documents"`
	Vocabulary  int               `json:"vocabulary"`
	GlobalTop   []tfidf.TermScore `json:"global_top"`
	Preview     []TFIDFDocument   `json:"preview,omitempty"`
	Output      string            `json:"output"`
	OutputError string            `json:"output_error,omitempty"`
}

func runTFIDF(cmd *cobra.Command, args []string) error {
	entries := mustLoadEntries(tfidfFile, "BibTeX file", bibtex.PolicyTitleOrAbstract)
	if len(entries) == 0 {
		exitWithError(ExitError, "no documents with text content found in %s", tfidfFile)
	}

	settings := loadSettings()
	logger := newLogger()

	stopwords := tfidf.DefaultStopwords()
	if settings.Stopwords != nil {
		stopwords = tfidf.StopwordSet(settings.Stopwords)
	}

	logger.Info("calculating TF-IDF scores", "documents", len(entries))
	res, err := tfidf.Analyze(tfidf.DocumentsFromEntries(entries), tfidf.Params{
		MinDF:      tfidfMinDF,
		MaxDFRatio: tfidfMaxDF,
		Stopwords:  stopwords,
	})
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(res.Vocabulary) == 0 {
		logger.Warn("no term passed the document frequency limits", "min_df", tfidfMinDF, "max_df", res.MaxDF)
	}

	out := TFIDFResult{
		Documents:  len(res.Documents),
		Vocabulary: len(res.Vocabulary),
		GlobalTop:  res.GlobalTop(tfidf.ReportGlobalTerms),
		Output:     tfidfOutput,
	}
	if verbose {
		for i := range min(tfidfPreviewDocs, len(res.Documents)) {
			out.Preview = append(out.Preview, TFIDFDocument{
				Title:    res.Documents[i].Title,
				DOI:      res.Documents[i].DOI,
				TopTerms: res.TopTerms(i, tfidfPreviewTerms),
			})
		}
	}

	writeErr := writeTFIDFReport(tfidfOutput, res, tfidfTopN)
	out.OutputError = errorString(writeErr)

	if humanOutput {
		printTFIDFHuman(out, writeErr)
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}

func writeTFIDFReport(path string, res *tfidf.Result, topN int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	err = res.WriteReport(f, topN)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printTFIDFHuman(r TFIDFResult, writeErr error) {
	fmt.Printf("Found %d documents with text content\n", r.Documents)

	if len(r.Preview) > 0 {
		fmt.Printf("\nTop %d documents by top term scores:\n", len(r.Preview))
		for i, d := range r.Preview {
			fmt.Printf("\nDocument %d:\n", i+1)
			if d.Title != "" {
				fmt.Printf("  Title: %s\n", truncateString(d.Title, SampleTitleMaxLen))
			}
			terms := make([]string, len(d.TopTerms))
			for j, ts := range d.TopTerms {
				terms[j] = fmt.Sprintf("%s(%.3f)", ts.Term, ts.Score)
			}
			fmt.Printf("  Top terms: %s\n", strings.Join(terms, ", "))
		}
	}

	fmt.Printf("\nTop %d terms globally:\n", tfidf.ReportGlobalTerms)
	for i, ts := range r.GlobalTop {
		fmt.Printf("%2d. %s: %.4f\n", i+1, ts.Term, ts.Score)
	}

	if writeErr == nil {
		fmt.Printf("\nDetailed results saved to: %s\n", r.Output)
	}
}
