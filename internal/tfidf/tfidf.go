// Package tfidf scores the terms of a small document collection by term
// frequency times inverse document frequency.
package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/litreview/lit/internal/bibtex"
)

// Default analysis parameters.
const (
	DefaultMinDF      = 2
	DefaultMaxDFRatio = 0.8
	DefaultTopN       = 10
)

var defaultStopwords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
	"by", "from", "up", "about", "into", "through", "during", "before", "after",
	"above", "below", "down", "out", "off", "over",
	"under", "again", "further", "then", "once", "here", "there", "when", "where",
	"why", "how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
	"very", "can", "will", "just", "should", "now", "also", "this", "that", "these",
	"those", "are", "was", "were", "been", "be", "have", "has", "had", "do", "does",
	"did", "would", "could", "may", "might", "must", "shall",
}

// DefaultStopwords returns a fresh copy of the built-in English stopword set.
func DefaultStopwords() map[string]bool {
	return StopwordSet(defaultStopwords)
}

// StopwordSet builds a lookup set from a word list. Words are lowercased.
func StopwordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = true
		}
	}
	return set
}

// ErrInvalidMinDF is returned when MinDF would allow a zero document frequency.
var ErrInvalidMinDF = errors.New("min_df must be at least 1")

// Document is one unit of text to score.
type Document struct {
	ID      string
	Title   string
	DOI     string
	Content string
}

// DocumentsFromEntries joins title, abstract and keywords of each entry.
func DocumentsFromEntries(entries []bibtex.Entry) []Document {
	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		var parts []string
		for _, p := range []string{e.Title, e.Abstract, e.Keywords} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		docs = append(docs, Document{
			ID:      e.Key,
			Title:   e.Title,
			DOI:     e.DOI,
			Content: strings.Join(parts, " "),
		})
	}
	return docs
}

// Params controls vocabulary filtering. A term is kept when the number of
// documents containing it lies in [MinDF, floor(MaxDFRatio*N)].
type Params struct {
	MinDF      int
	MaxDFRatio float64
	Stopwords  map[string]bool
}

// TermScore pairs a term with its score.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Result holds the scores of an analysis.
type Result struct {
	Documents  []Document
	Vocabulary []string
	MaxDF      int
	IDF        map[string]float64
	// Scores[i][term] is the score of term in document i; absent terms are 0.
	Scores []map[string]float64
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctuationStripper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(asciiPunctuation))
	for _, r := range asciiPunctuation {
		pairs = append(pairs, string(r), "")
	}
	return strings.NewReplacer(pairs...)
}()

// Tokenize lowercases text, removes ASCII punctuation and keeps
// whitespace-separated tokens longer than two characters.
func Tokenize(text string) []string {
	text = strings.ToLower(punctuationStripper.Replace(text))
	var tokens []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) > 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// Analyze computes TF-IDF scores for docs.
func Analyze(docs []Document, p Params) (*Result, error) {
	if p.MinDF < 1 {
		return nil, ErrInvalidMinDF
	}
	if p.MaxDFRatio < 0 {
		return nil, fmt.Errorf("max_df ratio must not be negative: %v", p.MaxDFRatio)
	}

	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		var kept []string
		for _, tok := range Tokenize(d.Content) {
			if !p.Stopwords[tok] {
				kept = append(kept, tok)
			}
		}
		tokenized[i] = kept

		seen := make(map[string]bool, len(kept))
		for _, tok := range kept {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	n := len(docs)
	maxDF := int(p.MaxDFRatio * float64(n))

	res := &Result{
		Documents: docs,
		MaxDF:     maxDF,
		IDF:       make(map[string]float64),
		Scores:    make([]map[string]float64, n),
	}
	for term, count := range df {
		if count >= p.MinDF && count <= maxDF {
			res.Vocabulary = append(res.Vocabulary, term)
			res.IDF[term] = math.Log(float64(n) / float64(count))
		}
	}
	sort.Strings(res.Vocabulary)

	for i, tokens := range tokenized {
		scores := make(map[string]float64)
		if len(tokens) > 0 {
			counts := make(map[string]int)
			for _, tok := range tokens {
				counts[tok]++
			}
			total := float64(len(tokens))
			for term, c := range counts {
				if idf, ok := res.IDF[term]; ok {
					scores[term] = float64(c) / total * idf
				}
			}
		}
		res.Scores[i] = scores
	}

	return res, nil
}

// Score returns the score of term in document i.
func (r *Result) Score(i int, term string) float64 {
	return r.Scores[i][term]
}

// TopTerms returns up to n terms of document i with a positive score,
// highest first. Ties are ordered by term.
func (r *Result) TopTerms(i, n int) []TermScore {
	var out []TermScore
	for term, s := range r.Scores[i] {
		if s > 0 {
			out = append(out, TermScore{Term: term, Score: s})
		}
	}
	return topN(out, n)
}

// GlobalTop sums each vocabulary term's score over all documents and returns
// the n highest positive sums.
func (r *Result) GlobalTop(n int) []TermScore {
	sums := make(map[string]float64, len(r.Vocabulary))
	for _, scores := range r.Scores {
		for term, s := range scores {
			sums[term] += s
		}
	}
	out := make([]TermScore, 0, len(r.Vocabulary))
	for _, term := range r.Vocabulary {
		if sums[term] > 0 {
			out = append(out, TermScore{Term: term, Score: sums[term]})
		}
	}
	return topN(out, n)
}

func topN(scores []TermScore, n int) []TermScore {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Term < scores[j].Term
	})
	if n >= 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}
