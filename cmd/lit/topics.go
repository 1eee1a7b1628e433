package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/topics"
	"github.com/spf13/cobra"
)

var (
	topicsFile          string
	topicsBibTeX        string
	topicsOutput        string
	topicsCaseSensitive bool
	topicsSpecific      string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Count how many BibTeX entries mention each topic",
	Long: `Count, for each topic in a file (one per line), the entries whose full
BibTeX text contains it. Only entries with a DOI are considered. Matching
is a case-insensitive substring test unless --case-sensitive is set.

--specific-topic lists the papers of one topic (added to the topic list if
absent). Topics are reported by descending count; zero counts are left out.

Examples:
  lit topics -t topics.txt -b library.bib --human
  lit topics -t topics.txt -b library.bib -o topic_counts.csv
  lit topics -t topics.txt -b library.bib -s "graph neural network" --human`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.Flags().StringVarP(&topicsFile, "topics", "t", "", "File containing topics, one per line (required)")
	topicsCmd.Flags().StringVarP(&topicsBibTeX, "bibtex", "b", "", "BibTeX file to analyze (required)")
	topicsCmd.Flags().StringVarP(&topicsOutput, "output", "o", "", "CSV file for the results")
	topicsCmd.Flags().BoolVarP(&topicsCaseSensitive, "case-sensitive", "c", false, "Use case-sensitive matching")
	topicsCmd.Flags().StringVarP(&topicsSpecific, "specific-topic", "s", "", "Show papers for a specific topic")
	topicsCmd.MarkFlagRequired("topics")
	topicsCmd.MarkFlagRequired("bibtex")
}

// TopicPaper is a paper matching a topic.
type TopicPaper struct {
	Title string `json:"title"`
	DOI   string `json:"doi"`
}

// TopicResult is a topic and its count.
type TopicResult struct {
	Topic string   `json:"topic"`
	Count int      `json:"count"`
	DOIs  []string `json:"dois,omitempty"`
}

// TopicsResult is the JSON output for the topics command.
type TopicsResult struct {
	Topics        int           `json:"topics"`
	Entries       int           `json:"entries"`
	CaseSensitive bool          `json:"case_sensitive"`
	Counts        []TopicResult `json:"counts"`
	Specific      string        `json:"specific_topic,omitempty"`
	Papers        []TopicPaper  `json:"papers,omitempty"`
	Output        string        `json:"output,omitempty"`
	OutputError   string        `json:"output_error,omitempty"`
}

func runTopics(cmd *cobra.Command, args []string) error {
	requireFile(topicsFile, "topics file")
	list, err := topics.ReadTopicsFile(topicsFile)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if topicsSpecific != "" && !slices.Contains(list, topicsSpecific) {
		list = append(list, topicsSpecific)
	}
	if len(list) == 0 {
		exitWithError(ExitError, "no topics found in %s", topicsFile)
	}

	entries := mustLoadEntries(topicsBibTeX, "BibTeX file", bibtex.PolicyDOI)
	if len(entries) == 0 {
		exitWithError(ExitError, "no entries with DOIs found in %s", topicsBibTeX)
	}

	counts := topics.Count(entries, list, topics.Options{CaseSensitive: topicsCaseSensitive})
	out := TopicsResult{
		Topics:        len(list),
		Entries:       len(entries),
		CaseSensitive: topicsCaseSensitive,
		Specific:      topicsSpecific,
		Output:        topicsOutput,
	}
	if topicsSpecific != "" {
		if c, ok := topics.Find(counts, topicsSpecific); ok {
			for _, e := range c.Entries {
				out.Papers = append(out.Papers, TopicPaper{Title: e.Title, DOI: e.DOI})
			}
		}
	}

	topics.Sort(counts)
	nonZero := topics.NonZero(counts)
	for _, c := range nonZero {
		tr := TopicResult{Topic: c.Topic, Count: c.Count}
		if verbose {
			tr.DOIs = c.DOIs()
		}
		out.Counts = append(out.Counts, tr)
	}

	var writeErr error
	if topicsOutput != "" {
		writeErr = writeTopicsCSV(topicsOutput, nonZero)
		out.OutputError = errorString(writeErr)
	}

	if humanOutput {
		printTopicsHuman(out, writeErr)
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}

func writeTopicsCSV(path string, counts []topics.TopicCount) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	err = topics.WriteCSV(f, counts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printTopicsHuman(r TopicsResult, writeErr error) {
	fmt.Printf("Loaded %d topics for analysis\n", r.Topics)
	fmt.Printf("Found %d BibTeX entries with DOIs\n", r.Entries)

	if r.Specific != "" {
		if len(r.Papers) > 0 {
			header := fmt.Sprintf("Papers containing topic '%s' (%d occurrences):", r.Specific, len(r.Papers))
			fmt.Printf("\n%s\n%s\n", header, strings.Repeat("-", 40+len(r.Specific)))
			for i, p := range r.Papers {
				fmt.Printf("%d. %s\n", i+1, p.Title)
				fmt.Printf("   DOI: %s\n\n", p.DOI)
			}
		} else {
			fmt.Printf("\nNo papers found containing topic '%s'\n", r.Specific)
		}
	}

	if r.Specific == "" || verbose {
		fmt.Println("\nTopic Frequency Analysis:")
		fmt.Println("------------------------")
		if len(r.Counts) == 0 {
			fmt.Println("No topics found in the BibTeX entries.")
		}
		for _, c := range r.Counts {
			fmt.Printf("%s: %d occurrences\n", c.Topic, c.Count)
			if verbose {
				fmt.Println("  DOIs:")
				for _, d := range c.DOIs {
					fmt.Printf("    - %s\n", d)
				}
			}
		}
	}

	if r.Output != "" && writeErr == nil {
		fmt.Printf("\nResults saved to: %s\n", r.Output)
	}
}
