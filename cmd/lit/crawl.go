package main

import (
	"fmt"
	"os"
	"time"

	"github.com/litreview/lit/internal/export"
	"github.com/litreview/lit/internal/springer"
	"github.com/spf13/cobra"
)

var (
	crawlURL          string
	crawlPrefix       string
	crawlMaxPages     int
	crawlDelay        float64
	crawlBibTeXOnly   bool
	crawlCSVOnly      bool
	crawlConvertProxy bool
	crawlAppend       bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a Springer RSS search feed into BibTeX and CSV",
	Long: `Fetch the pages of a link.springer.com search.rss feed and save the
papers as <prefix>.bib and <prefix>.csv (doi,title,year).

The crawl stops at --max-pages or at the first page without papers. KTH
library proxy URLs can be turned into direct Springer URLs with
--convert-kth-url. --append adds only papers whose DOI is not yet in
<prefix>.bib instead of overwriting it.

Examples:
  lit crawl -u "https://link.springer.com/search.rss?query=graph+kernels"
  lit crawl -u "$FEED" -o kernels --max-pages 5 --bibtex-only --human
  lit crawl -u "$FEED" -o kernels --append`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "Springer search.rss URL (required)")
	crawlCmd.Flags().StringVarP(&crawlPrefix, "output", "o", "springer_results", "Output file prefix")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 0, "Maximum number of pages to crawl (default from config, 42)")
	crawlCmd.Flags().Float64Var(&crawlDelay, "delay", 0, "Delay between pages in seconds (default from config, 1.5)")
	crawlCmd.Flags().BoolVar(&crawlBibTeXOnly, "bibtex-only", false, "Only write the BibTeX file")
	crawlCmd.Flags().BoolVar(&crawlCSVOnly, "csv-only", false, "Only write the CSV file")
	crawlCmd.Flags().BoolVar(&crawlConvertProxy, "convert-kth-url", false, "Convert a KTH library proxy URL to a direct Springer URL")
	crawlCmd.Flags().BoolVar(&crawlAppend, "append", false, "Append new papers to an existing BibTeX file")
	crawlCmd.MarkFlagRequired("url")
	crawlCmd.MarkFlagsMutuallyExclusive("bibtex-only", "csv-only")
}

// CrawlResult is the JSON output for the crawl command.
type CrawlResult struct {
	URL         string           `json:"url"`
	Pages       int              `json:"pages"`
	Stopped     string           `json:"stopped,omitempty"`
	Summary     springer.Summary `json:"summary"`
	BibTeX      string           `json:"bibtex,omitempty"`
	Appended    *int             `json:"appended,omitempty"`
	CSV         string           `json:"csv,omitempty"`
	OutputError string           `json:"output_error,omitempty"`
}

func runCrawl(cmd *cobra.Command, args []string) error {
	settings := loadSettings()
	logger := newLogger()

	feedURL := crawlURL
	if springer.IsProxyURL(feedURL) {
		if crawlConvertProxy {
			feedURL = springer.ConvertProxyURL(feedURL)
			logger.Info("converted proxy URL", "url", feedURL)
		} else {
			logger.Warn("URL points at the KTH library proxy; pass --convert-kth-url to use the direct Springer URL")
		}
	}

	maxPages := settings.SpringerMaxPages
	if cmd.Flags().Changed("max-pages") {
		maxPages = crawlMaxPages
	}
	delay := settings.SpringerDelay
	if cmd.Flags().Changed("delay") {
		delay = time.Duration(crawlDelay * float64(time.Second))
	}

	crawler, err := springer.NewCrawler(settings.SpringerUserAgent,
		springer.WithDelay(delay),
		springer.WithLogger(logger),
	)
	if err != nil {
		exitWithError(ExitConfigError, "%v (set springer.user_agent)", err)
	}
	logger.Info("crawling", "url", feedURL, "max_pages", maxPages)
	res, err := crawler.Crawl(cmd.Context(), feedURL, maxPages)
	if err != nil && res == nil {
		exitWithError(ExitError, "%v", err)
	}
	if err != nil {
		logger.Warn("crawl interrupted", "err", err)
	}
	if len(res.Papers) == 0 {
		exitWithError(ExitError, "no papers found")
	}

	out := CrawlResult{
		URL:     feedURL,
		Pages:   res.Pages,
		Stopped: res.Stopped,
		Summary: springer.Summarize(res.Papers),
	}

	var writeErr error
	if !crawlCSVOnly {
		out.BibTeX = crawlPrefix + ".bib"
		writeErr = writeCrawlBibTeX(out.BibTeX, res.Papers, &out)
	}
	if !crawlBibTeXOnly && writeErr == nil {
		out.CSV = crawlPrefix + ".csv"
		writeErr = export.WriteCSVFile(out.CSV, springer.CSVHeader, springer.Rows(res.Papers), false)
	}
	out.OutputError = errorString(writeErr)

	if humanOutput {
		printCrawlHuman(out, writeErr)
	} else {
		outputJSON(out)
	}
	exitOnOutputError(writeErr)
	return nil
}

func writeCrawlBibTeX(path string, papers []springer.Paper, out *CrawlResult) error {
	records := springer.Records(papers)
	if !crawlAppend {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		err = export.WriteBibTeX(f, records)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}

	idx, err := export.LoadIndex(path)
	if err != nil {
		return err
	}
	fresh := idx.Filter(records)
	n := len(fresh)
	out.Appended = &n
	if n == 0 {
		return nil
	}
	return export.AppendBibTeX(path, fresh)
}

func printCrawlHuman(r CrawlResult, writeErr error) {
	s := r.Summary
	fmt.Printf("Crawled %d pages\n", r.Pages)
	if r.Stopped != "" {
		fmt.Printf("Stopped at %s\n", r.Stopped)
	}
	fmt.Println("\nSummary:")
	fmt.Printf("  Total papers: %d\n", s.Total)
	fmt.Printf("  Papers with DOI: %d (%.1f%%)\n", s.WithDOI, s.DOIPercent)
	if len(s.Years) > 0 {
		fmt.Println("  Papers by year:")
		for _, y := range s.Years {
			fmt.Printf("    %s: %d\n", y.Year, y.Count)
		}
	}
	if len(s.Sample) > 0 {
		fmt.Println("\nSample papers:")
		for i, p := range s.Sample {
			fmt.Printf("  %d. %s\n", i+1, truncateString(p.Title, SampleTitleMaxLen))
			fmt.Printf("     DOI: %s\n", p.DOI)
		}
	}
	if r.BibTeX != "" && writeErr == nil {
		if r.Appended != nil {
			fmt.Printf("\nAppended %d new papers to: %s\n", *r.Appended, r.BibTeX)
		} else {
			fmt.Printf("\nBibTeX saved to: %s\n", r.BibTeX)
		}
	}
	if r.CSV != "" && writeErr == nil {
		fmt.Printf("CSV saved to: %s\n", r.CSV)
	}
}
