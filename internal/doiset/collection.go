package doiset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/litreview/lit/internal/bibtex"
)

// SourceStats describes what one source contributed to a Collection.
type SourceStats struct {
	Name        string `json:"name"`
	Entries     int    `json:"entries"`
	Occurrences int    `json:"doi_occurrences"`
	Unique      int    `json:"unique_dois"`
}

// Collection is the union of DOIs gathered from several sources.
type Collection struct {
	Sources []SourceStats
	All     Set
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{All: make(Set)}
}

// Add records a source and merges its DOIs into the union. entries is the
// number of records the source held, with or without a DOI.
func (c *Collection) Add(name string, entries int, dois []string) {
	own := New(dois...)
	occurrences := 0
	for _, d := range dois {
		if bibtex.BareDOI(d) != "" {
			occurrences++
		}
	}
	c.Sources = append(c.Sources, SourceStats{
		Name:        name,
		Entries:     entries,
		Occurrences: occurrences,
		Unique:      own.Len(),
	})
	for d := range own {
		c.All[d] = struct{}{}
	}
}

// AddBibFile parses a bibliography file and adds it as a source.
func (c *Collection) AddBibFile(path string) error {
	entries, err := bibtex.ParseFile(path, bibtex.PolicyAll)
	if err != nil {
		return err
	}
	dois := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.DOI != "" {
			dois = append(dois, e.DOI)
		}
	}
	c.Add(filepath.Base(path), len(entries), dois)
	return nil
}

// TotalOccurrences sums DOI occurrences over all sources.
func (c *Collection) TotalOccurrences() int {
	n := 0
	for _, s := range c.Sources {
		n += s.Occurrences
	}
	return n
}

// Duplicates is the number of occurrences removed by deduplication.
func (c *Collection) Duplicates() int {
	return c.TotalOccurrences() - c.All.Len()
}

// DuplicatePercent is Duplicates as a share of all occurrences.
func (c *Collection) DuplicatePercent() float64 {
	return Percent(c.Duplicates(), c.TotalOccurrences())
}

// SortedSources returns the source stats ordered by name.
func (c *Collection) SortedSources() []SourceStats {
	out := append([]SourceStats(nil), c.Sources...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindBibFiles lists the *.bib files directly inside dir, sorted.
func FindBibFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.bib"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// OverlapReport compares a target DOI set against a comparison set.
type OverlapReport struct {
	Target     Set
	Comparison Set
	Overlap    Set
	Missing    Set
}

// Compare computes which target DOIs are covered by comparison.
func Compare(target, comparison Set) OverlapReport {
	return OverlapReport{
		Target:     target,
		Comparison: comparison,
		Overlap:    target.Intersect(comparison),
		Missing:    target.Difference(comparison),
	}
}

// CoveragePercent is the share of the target found in the comparison set.
func (r OverlapReport) CoveragePercent() float64 {
	return Percent(r.Overlap.Len(), r.Target.Len())
}

// MissingPercent is the share of the target absent from the comparison set.
func (r OverlapReport) MissingPercent() float64 {
	return Percent(r.Missing.Len(), r.Target.Len())
}
