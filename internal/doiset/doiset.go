// Package doiset builds deduplicated DOI sets from bibliographies and DOI
// lists and compares them.
package doiset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/litreview/lit/internal/bibtex"
)

// Set is a deduplicated collection of bare DOIs.
type Set map[string]struct{}

// New returns a set holding the given DOIs after bare normalization.
func New(dois ...string) Set {
	s := make(Set, len(dois))
	for _, d := range dois {
		if d = bibtex.BareDOI(d); d != "" {
			s[d] = struct{}{}
		}
	}
	return s
}

// FromEntries collects the DOIs of entries that carry one.
func FromEntries(entries []bibtex.Entry) Set {
	s := make(Set, len(entries))
	for _, e := range entries {
		if e.DOI != "" {
			s[e.DOI] = struct{}{}
		}
	}
	return s
}

// ReadList reads one DOI per line. Blank lines are ignored.
func ReadList(r io.Reader) (Set, error) {
	dois, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return New(dois...), nil
}

// ReadLines returns the bare DOIs of a one-per-line list in file order,
// duplicates included. Blank lines are skipped.
func ReadLines(r io.Reader) ([]string, error) {
	var dois []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if d := bibtex.BareDOI(scanner.Text()); d != "" {
			dois = append(dois, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading DOI list: %w", err)
	}
	return dois, nil
}

// ReadLinesFile is ReadLines over a file.
func ReadLinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOI list: %w", err)
	}
	defer f.Close()
	return ReadLines(f)
}

// ReadListFile reads a DOI list file.
func ReadListFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOI list: %w", err)
	}
	defer f.Close()
	return ReadList(f)
}

// Len returns the number of DOIs in the set.
func (s Set) Len() int {
	return len(s)
}

// Has reports whether doi (in any accepted form) is in the set.
func (s Set) Has(doi string) bool {
	_, ok := s[bibtex.BareDOI(doi)]
	return ok
}

// Sorted returns the DOIs in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the DOIs present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for d := range s {
		if _, ok := other[d]; ok {
			out[d] = struct{}{}
		}
	}
	return out
}

// Difference returns the DOIs of s that are absent from other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for d := range s {
		if _, ok := other[d]; !ok {
			out[d] = struct{}{}
		}
	}
	return out
}

// Union merges any number of sets into a new one.
func Union(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		for d := range s {
			out[d] = struct{}{}
		}
	}
	return out
}

// WriteList writes the set one DOI per line in sorted order.
func (s Set) WriteList(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, d := range s.Sorted() {
		if _, err := bw.WriteString(d + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteListFile writes the sorted set to path.
func (s Set) WriteListFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := s.WriteList(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Percent returns 100*part/whole, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// Sample returns up to n DOIs from the sorted set.
func (s Set) Sample(n int) []string {
	sorted := s.Sorted()
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
