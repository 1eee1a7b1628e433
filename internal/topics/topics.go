// Package topics counts how many bibliography entries mention each of a list
// of literal topic strings.
package topics

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
)

// Options controls matching.
type Options struct {
	CaseSensitive bool
}

// TopicCount is the number of entries whose raw text contains Topic.
type TopicCount struct {
	Topic   string         `json:"topic"`
	Count   int            `json:"count"`
	Entries []bibtex.Entry `json:"entries,omitempty"`
}

// ReadTopics reads one topic per line, skipping blank lines.
func ReadTopics(r io.Reader) ([]string, error) {
	var topics []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if t := strings.TrimSpace(scanner.Text()); t != "" {
			topics = append(topics, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading topics: %w", err)
	}
	return topics, nil
}

// ReadTopicsFile reads a topics file.
func ReadTopicsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topics file: %w", err)
	}
	defer f.Close()
	return ReadTopics(f)
}

// Count matches every topic against every entry. Matching is plain
// substring containment on the entry's raw text, so "AI" matches inside
// "painting". The result has one element per topic, in input order.
func Count(entries []bibtex.Entry, topics []string, opts Options) []TopicCount {
	counts := make([]TopicCount, len(topics))
	needles := make([]string, len(topics))
	for i, t := range topics {
		counts[i].Topic = t
		needles[i] = t
		if !opts.CaseSensitive {
			needles[i] = strings.ToLower(t)
		}
	}

	for _, e := range entries {
		content := e.Raw
		if !opts.CaseSensitive {
			content = strings.ToLower(content)
		}
		for i, needle := range needles {
			if strings.Contains(content, needle) {
				counts[i].Count++
				counts[i].Entries = append(counts[i].Entries, e)
			}
		}
	}
	return counts
}

// Sort orders counts by descending count; ties keep their input order.
func Sort(counts []TopicCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
}

// NonZero drops topics that matched nothing.
func NonZero(counts []TopicCount) []TopicCount {
	out := make([]TopicCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the count for topic, if it was requested.
func Find(counts []TopicCount, topic string) (TopicCount, bool) {
	for _, c := range counts {
		if c.Topic == topic {
			return c, true
		}
	}
	return TopicCount{}, false
}

// DOIs returns the DOIs of the matched entries.
func (c TopicCount) DOIs() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.DOI
		if out[i] == "" {
			out[i] = "No DOI"
		}
	}
	return out
}

// Titles returns the titles of the matched entries.
func (c TopicCount) Titles() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Title
		if out[i] == "" {
			out[i] = "No Title"
		}
	}
	return out
}

// WriteCSV writes Topic,Frequency,DOIs,Titles rows. Matched DOIs and titles
// are joined with "|".
func WriteCSV(w io.Writer, counts []TopicCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Topic", "Frequency", "DOIs", "Titles"}); err != nil {
		return err
	}
	for _, c := range counts {
		row := []string{
			c.Topic,
			strconv.Itoa(c.Count),
			strings.Join(c.DOIs(), "|"),
			strings.Join(c.Titles(), "|"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
