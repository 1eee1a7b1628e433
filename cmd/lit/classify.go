package main

import (
	"context"
	"fmt"

	"github.com/litreview/lit/internal/batch"
	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/llm"
	"github.com/spf13/cobra"
)

var (
	classifyFile       string
	classifyOutput     string
	classifyModel      string
	classifyDelay      float64
	classifySampleSize int
	classifySeed       uint64
)

// ClassifyHeader is the header of the classification CSV.
var ClassifyHeader = []string{"DOI", "Title", "Predicted_Course"}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Predict the CS course subject each paper targets",
	Long: `Ask a chat-completion model which computer science course (Databases,
Operating Systems, ...) each paper with a title and a DOI is aimed at.

--sample-size classifies a reproducible random subset chosen with --seed;
the subset keeps the file order. Requires OPENAI_API_KEY.

Examples:
  lit classify -f library.bib -o courses.csv
  lit classify -f library.bib -o courses.csv -n 50 --seed 7 --human`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "BibTeX file to analyze (required)")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "", "Output CSV file (required)")
	classifyCmd.Flags().StringVarP(&classifyModel, "model", "m", "", "Model to use (default from config, gpt-4o)")
	classifyCmd.Flags().Float64Var(&classifyDelay, "delay", 1.0, "Delay between API calls in seconds")
	classifyCmd.Flags().IntVarP(&classifySampleSize, "sample-size", "n", 0, "Classify a random sample of this many papers")
	classifyCmd.Flags().Uint64Var(&classifySeed, "seed", batch.DefaultSeed, "Random seed for sampling")
	classifyCmd.MarkFlagRequired("file")
	classifyCmd.MarkFlagRequired("output")
}

// ClassifiedPaper is the outcome for one paper.
type ClassifiedPaper struct {
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	PredictedCourse string `json:"predicted_course"`
	Failed          bool   `json:"failed,omitempty"`
}

// ClassifyResult is the JSON output for the classify command.
type ClassifyResult struct {
	Model        string            `json:"model"`
	Available    int               `json:"available"`
	Papers       int               `json:"papers"`
	Failed       int               `json:"failed"`
	Seed         *uint64           `json:"seed,omitempty"`
	Distribution []llm.LabelCount  `json:"distribution"`
	Output       string            `json:"output"`
	OutputError  string            `json:"output_error,omitempty"`
	Results      []ClassifiedPaper `json:"results"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	requireFile(classifyFile, "BibTeX file")

	settings := loadSettings()
	logger := newLogger()
	client := newLLMClient(settings, classifyModel)

	entries := mustLoadEntries(classifyFile, "BibTeX file", bibtex.PolicyDOIAndTitle)
	if len(entries) == 0 {
		exitWithError(ExitError, "no papers with titles and DOIs found")
	}
	papers := make([]llm.Paper, len(entries))
	for i, e := range entries {
		papers[i] = llm.PaperFromEntry(e)
	}

	out := ClassifyResult{Model: client.Model(), Available: len(papers), Output: classifyOutput}
	if classifySampleSize > 0 {
		if classifySampleSize > len(papers) {
			logger.Warn("sample size is larger than available papers; processing all",
				"sample_size", classifySampleSize, "available", len(papers))
		} else {
			papers = batch.Sample(papers, classifySampleSize, classifySeed)
			seed := classifySeed
			out.Seed = &seed
			logger.Info("randomly selected papers", "count", len(papers), "seed", classifySeed)
		}
	}
	logger.Info("classifying papers", "papers", len(papers), "model", client.Model())

	results := batch.Run(cmd.Context(), papers, batch.Options{
		Delay: llmDelay(settings, classifyDelay, cmd.Flags().Changed("delay")),
		OnDone: func(i int, f *batch.Failure) {
			progress := fmt.Sprintf("%d/%d", i+1, len(papers))
			if f != nil {
				logger.Warn("classification failed", "n", progress, "title", papers[i].ShortTitle(), "err", f.Message)
				return
			}
			logger.Debug("classified", "n", progress, "title", papers[i].ShortTitle())
		},
	}, func(ctx context.Context, p llm.Paper) (string, error) {
		return llm.Classify(ctx, client, p)
	})

	out.Papers = len(results)
	rows := make([][]string, 0, len(results))
	labels := make([]string, 0, len(results))
	for _, r := range results {
		cp := ClassifiedPaper{DOI: r.Item.DOI, Title: r.Item.Title, PredictedCourse: r.Value}
		if !r.OK() {
			out.Failed++
			cp.Failed = true
			cp.PredictedCourse = r.Failure.Message
		}
		rows = append(rows, []string{cp.DOI, cp.Title, cp.PredictedCourse})
		labels = append(labels, cp.PredictedCourse)
		out.Results = append(out.Results, cp)
	}
	out.Distribution = llm.Distribution(labels)

	writeErr := writeLabelsCSV(classifyOutput, ClassifyHeader, rows)
	out.OutputError = errorString(writeErr)

	if humanOutput {
		if verbose {
			for i, cp := range out.Results {
				fmt.Printf("Processing %d/%d: %s\n", i+1, out.Papers, truncateString(cp.Title, ClassifyTitleMaxLen))
				fmt.Printf("  → %s\n", cp.PredictedCourse)
			}
		}
		if writeErr == nil {
			fmt.Printf("\nResults saved to: %s\n", out.Output)
		}
		printDistributionHuman("Classification Summary", 40, out.Distribution)
		if out.Seed != nil {
			fmt.Printf("\nSampling Info:\n")
			fmt.Printf("Random seed used: %d\n", *out.Seed)
			fmt.Printf("Sample size: %d out of %d available papers\n", out.Papers, out.Available)
		}
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}
