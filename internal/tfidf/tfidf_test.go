package tfidf

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/litreview/lit/internal/bibtex"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"an AI is ok", nil},
		{"state-of-the-art models", []string{"stateoftheart", "models"}},
		{"über naïve", []string{"über", "naïve"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnalyze_MaxDFExcludesUbiquitousTerm(t *testing.T) {
	docs := []Document{
		{Content: "protein folding protein"},
		{Content: "protein folding dynamics"},
		{Content: "protein dynamics"},
	}
	res, err := Analyze(docs, Params{MinDF: 2, MaxDFRatio: 0.8})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.MaxDF != 2 {
		t.Errorf("MaxDF = %d, want 2", res.MaxDF)
	}
	want := []string{"dynamics", "folding"}
	if !reflect.DeepEqual(res.Vocabulary, want) {
		t.Errorf("Vocabulary = %v, want %v", res.Vocabulary, want)
	}
	if got := res.Score(0, "protein"); got != 0 {
		t.Errorf("Score(protein) = %v, want 0", got)
	}
}

func TestAnalyze_Scores(t *testing.T) {
	docs := []Document{
		{Content: "alpha beta beta"},
		{Content: "alpha gamma"},
		{Content: "beta gamma"},
		{Content: "delta"},
	}
	res, err := Analyze(docs, Params{MinDF: 1, MaxDFRatio: 1})
	if err != nil {
		t.Fatal(err)
	}

	// beta: tf = 2/3 in doc 0, df = 2 of 4 documents
	want := 2.0 / 3.0 * math.Log(4.0/2.0)
	if got := res.Score(0, "beta"); math.Abs(got-want) > 1e-12 {
		t.Errorf("Score(0, beta) = %v, want %v", got, want)
	}
	if got := res.Score(1, "beta"); got != 0 {
		t.Errorf("Score(1, beta) = %v, want 0", got)
	}
	if got := res.IDF["delta"]; math.Abs(got-math.Log(4)) > 1e-12 {
		t.Errorf("IDF(delta) = %v, want ln 4", got)
	}

	top := res.TopTerms(0, 1)
	if len(top) != 1 || top[0].Term != "beta" {
		t.Errorf("TopTerms(0, 1) = %v, want beta", top)
	}

	global := res.GlobalTop(10)
	if len(global) != len(res.Vocabulary) {
		t.Errorf("GlobalTop() returned %d terms, want %d", len(global), len(res.Vocabulary))
	}
	for i := 1; i < len(global); i++ {
		if global[i].Score > global[i-1].Score {
			t.Errorf("GlobalTop() not sorted at %d: %v", i, global)
		}
	}
}

func TestGlobalTop_OmitsZeroScores(t *testing.T) {
	docs := []Document{
		{Content: "graph kernels"},
		{Content: "graph networks"},
	}
	res, err := Analyze(docs, Params{MinDF: 1, MaxDFRatio: 1})
	if err != nil {
		t.Fatal(err)
	}

	// "graph" is in every document, so its IDF is 0
	var terms []string
	for _, ts := range res.GlobalTop(10) {
		terms = append(terms, ts.Term)
	}
	if want := []string{"kernels", "networks"}; !reflect.DeepEqual(terms, want) {
		t.Errorf("GlobalTop() terms = %v, want %v", terms, want)
	}
}

func TestAnalyze_Stopwords(t *testing.T) {
	docs := []Document{
		{Content: "the theory should hold"},
		{Content: "the theory should fail"},
	}

	res, err := Analyze(docs, Params{MinDF: 1, MaxDFRatio: 1, Stopwords: DefaultStopwords()})
	if err != nil {
		t.Fatal(err)
	}
	for _, term := range res.Vocabulary {
		if term == "the" || term == "should" {
			t.Errorf("stopword %q in vocabulary", term)
		}
	}

	custom := StopwordSet([]string{"Theory"})
	res, err = Analyze(docs, Params{MinDF: 1, MaxDFRatio: 1, Stopwords: custom})
	if err != nil {
		t.Fatal(err)
	}
	for _, term := range res.Vocabulary {
		if term == "theory" {
			t.Error("custom stopword theory in vocabulary")
		}
	}
}

func TestAnalyze_InvalidParams(t *testing.T) {
	if _, err := Analyze(nil, Params{MinDF: 0, MaxDFRatio: 0.8}); !errors.Is(err, ErrInvalidMinDF) {
		t.Errorf("Analyze(MinDF=0) error = %v, want ErrInvalidMinDF", err)
	}
	if _, err := Analyze(nil, Params{MinDF: 1, MaxDFRatio: -1}); err == nil {
		t.Error("Analyze(MaxDFRatio<0) expected error")
	}
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	res, err := Analyze([]Document{{Content: ""}, {Content: "word word"}}, Params{MinDF: 1, MaxDFRatio: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.TopTerms(0, 5)) != 0 {
		t.Error("empty document should have no top terms")
	}
}

func TestDefaultStopwords_IsCopy(t *testing.T) {
	a := DefaultStopwords()
	a["extra"] = true
	if DefaultStopwords()["extra"] {
		t.Error("DefaultStopwords() shares state between calls")
	}
}

func TestDocumentsFromEntries(t *testing.T) {
	docs := DocumentsFromEntries([]bibtex.Entry{
		{Key: "k", Title: "T", Keywords: "kw", DOI: "10.1/a"},
	})
	if docs[0].Content != "T kw" || docs[0].DOI != "10.1/a" || docs[0].ID != "k" {
		t.Errorf("DocumentsFromEntries() = %+v", docs[0])
	}
}

func TestWriteReport(t *testing.T) {
	docs := []Document{
		{Title: strings.Repeat("x", 120), DOI: "10.1/a", Content: "graph theory"},
		{Content: "graph networks"},
		{Content: "networks"},
	}
	res, err := Analyze(docs, Params{MinDF: 1, MaxDFRatio: 1})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := res.WriteReport(&buf, 3); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"TF-IDF Analysis Results\n",
		"Top 20 Terms Globally:\n",
		"Per-Document Analysis:\n",
		"\nDocument 1:\nTitle: " + strings.Repeat("x", 100) + "...\nDOI: 10.1/a\nTop 3 terms:\n",
		"\nDocument 3:\nTop 3 terms:\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}
