package tfidf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ReportGlobalTerms is the number of global terms listed in a report.
const ReportGlobalTerms = 20

// WriteReport writes the plain-text analysis report: the global top terms
// followed by the top terms of every document.
func (r *Result) WriteReport(w io.Writer, topN int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "TF-IDF Analysis Results")
	fmt.Fprintln(bw, strings.Repeat("=", 50))
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "Top %d Terms Globally:\n", ReportGlobalTerms)
	fmt.Fprintln(bw, strings.Repeat("-", 30))
	for _, ts := range r.GlobalTop(ReportGlobalTerms) {
		fmt.Fprintf(bw, "%s: %.4f\n", ts.Term, ts.Score)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Per-Document Analysis:")
	fmt.Fprintln(bw, strings.Repeat("-", 30))
	for i, doc := range r.Documents {
		fmt.Fprintf(bw, "\nDocument %d:\n", i+1)
		if doc.Title != "" {
			fmt.Fprintf(bw, "Title: %s...\n", truncateRunes(doc.Title, 100))
		}
		if doc.DOI != "" {
			fmt.Fprintf(bw, "DOI: %s\n", doc.DOI)
		}
		fmt.Fprintf(bw, "Top %d terms:\n", topN)
		for _, ts := range r.TopTerms(i, topN) {
			fmt.Fprintf(bw, "  %s: %.4f\n", ts.Term, ts.Score)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
