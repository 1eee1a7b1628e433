package main

import (
	"fmt"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchDB    string
	searchIndex string
	searchField string
	searchDOI   string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over entries stored in the SQLite database",
	Long: `Search the titles, abstracts and keywords of entries stored by
"lit convert --format sqlite" (or indexed here with --index).

Without a query, lists the stored sources and entry counts.

Examples:
  lit search "graph kernels"
  lit search --index library.bib transformer --human
  lit search --field title attention
  lit search --doi 10.1007/s10994-023-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchDB, "db", "", "Database path (default from config, lit.db)")
	searchCmd.Flags().StringVar(&searchIndex, "index", "", "Store a .bib or .jsonl file before searching")
	searchCmd.Flags().StringVar(&searchField, "field", "", "Restrict the search to title, abstract or keywords")
	searchCmd.Flags().StringVar(&searchDOI, "doi", "", "Look up entries by DOI instead of searching")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum number of results")
}

// SearchResult is the JSON output for the search command.
type SearchResult struct {
	Query   string                `json:"query,omitempty"`
	Field   string                `json:"field,omitempty"`
	Indexed *int                  `json:"indexed,omitempty"`
	Total   int                   `json:"total_entries"`
	Sources []storage.SourceCount `json:"sources,omitempty"`
	Results []storage.StoredEntry `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	path := searchDB
	if path == "" {
		path = loadSettings().Database
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	defer db.Close()

	out := SearchResult{Field: searchField, Results: []storage.StoredEntry{}}
	if searchIndex != "" {
		entries := mustLoadEntries(searchIndex, "index file", bibtex.PolicyAll)
		n, err := db.ReplaceEntries(searchIndex, entries)
		if err != nil {
			exitWithError(ExitOutputError, "%v", err)
		}
		out.Indexed = &n
		newLogger().Info("indexed", "file", searchIndex, "entries", n)
	}

	if out.Total, err = db.Count(); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	var results []storage.StoredEntry
	switch {
	case searchDOI != "":
		out.Query = searchDOI
		results, err = db.FindByDOI(searchDOI)
	case len(args) == 1 && searchField != "":
		out.Query = args[0]
		results, err = db.SearchField(searchField, args[0], searchLimit)
	case len(args) == 1:
		out.Query = args[0]
		results, err = db.Search(args[0], searchLimit)
	default:
		out.Sources, err = db.Sources()
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if results != nil {
		out.Results = results
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}

	if out.Indexed != nil {
		fmt.Printf("Indexed %d entries from %s\n", *out.Indexed, searchIndex)
	}
	if out.Query == "" {
		fmt.Printf("%d entries stored in %s\n", out.Total, path)
		for _, s := range out.Sources {
			fmt.Printf("  %s: %d\n", s.Source, s.Entries)
		}
		return nil
	}
	if len(out.Results) == 0 {
		fmt.Printf("No entries match %q\n", out.Query)
		return nil
	}
	fmt.Printf("Found %d entries matching %q:\n\n", len(out.Results), out.Query)
	for i, e := range out.Results {
		fmt.Printf("%d. %s\n", i+1, truncateString(e.Title, SearchTitleMaxLen))
		if e.DOI != "" {
			fmt.Printf("   DOI: %s\n", e.DOI)
		}
		fmt.Printf("   Source: %s\n\n", e.Source)
	}
	return nil
}
