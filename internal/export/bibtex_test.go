package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/xuri/excelize/v2"
)

func TestRecord_BibTeX(t *testing.T) {
	r := Record{Key: "springer2023_001"}
	r.Add("title", "Graph Kernels")
	r.Add("author", "")
	r.Add("year", "2023")
	r.Add("note", "Crawled from Springer RSS feed")

	want := "@article{springer2023_001,\n" +
		"  title={Graph Kernels},\n" +
		"  year={2023},\n" +
		"  note={Crawled from Springer RSS feed}\n" +
		"}\n"
	if got := r.BibTeX(); got != want {
		t.Errorf("BibTeX() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteBibTeX_RoundTrip(t *testing.T) {
	entries := []bibtex.Entry{
		{Type: "Article", Key: "a1", DOI: "10.1/x", Title: "Cats & Dogs"},
		{Type: "inproceedings", Key: "b2", Title: "No DOI here", Abstract: "Short."},
	}

	var buf bytes.Buffer
	if err := WriteBibTeX(&buf, RecordsFromEntries(entries, bibtex.DOIBare)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `title={Cats \& Dogs}`) {
		t.Errorf("title not escaped:\n%s", out)
	}
	if !strings.HasPrefix(out, "@article{a1,\n") {
		t.Errorf("entry type not lowercased:\n%s", out)
	}

	parsed, err := bibtex.Extract(strings.NewReader(out), bibtex.PolicyAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(parsed))
	}
	if parsed[0].DOI != "10.1/x" || parsed[1].Abstract != "Short." {
		t.Errorf("round trip = %+v", parsed)
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50% of $x", `50\% of \$x`},
		{"a_b #1", `a\_b \#1`},
		{"~^", `\textasciitilde{}\textasciicircum{}`},
	}
	for _, tt := range tests {
		if got := escapeLatex(tt.in); got != tt.want {
			t.Errorf("escapeLatex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	rows := [][]string{{"10.1/a", `He said "hi", twice`}}

	var plain bytes.Buffer
	if err := WriteCSV(&plain, []string{"DOI", "Title"}, rows, false); err != nil {
		t.Fatal(err)
	}
	if want := "DOI,Title\n10.1/a,\"He said \"\"hi\"\", twice\"\n"; plain.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", plain.String(), want)
	}

	var quoted bytes.Buffer
	if err := WriteCSV(&quoted, []string{"DOI", "Valid"}, [][]string{{"10.1/a", "Yes"}}, true); err != nil {
		t.Fatal(err)
	}
	if want := "\"DOI\",\"Valid\"\n\"10.1/a\",\"Yes\"\n"; quoted.String() != want {
		t.Errorf("quoted WriteCSV() = %q, want %q", quoted.String(), want)
	}
}

func TestWriteEntriesCSV(t *testing.T) {
	entries := []bibtex.Entry{{DOI: "10.1/a", Title: "A"}, {Title: "B"}}

	var buf bytes.Buffer
	if err := WriteEntriesCSV(&buf, entries, bibtex.DOIFull); err != nil {
		t.Fatal(err)
	}
	want := "DOI,Title\nhttps://doi.org/10.1/a,A\n,B\n"
	if buf.String() != want {
		t.Errorf("WriteEntriesCSV() = %q, want %q", buf.String(), want)
	}
}

func TestWriteEntriesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.xlsx")
	entries := []bibtex.Entry{{DOI: "10.1/a", Title: "A", Keywords: "k1, k2"}}
	if err := WriteEntriesXLSX(path, entries, bibtex.DOIBare); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(EntriesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "DOI" || rows[1][0] != "10.1/a" || rows[1][3] != "k1, k2" {
		t.Errorf("rows = %v", rows)
	}
}

func TestIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.bib")
	existing := "@article{old1,\n  doi = {https://doi.org/10.1/OLD},\n  title = {Old}\n}\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := LoadIndex(path)
	if err != nil {
		t.Fatal(err)
	}

	dup := Record{Key: "new1"}
	dup.Add("doi", "10.1/old")
	fresh := Record{Key: "new2"}
	fresh.Add("doi", "10.1/new")
	byKey := Record{Key: "old1"}

	got := idx.Filter([]Record{dup, fresh, byKey, fresh})
	if len(got) != 1 || got[0].Key != "new2" {
		t.Errorf("Filter() = %+v, want only new2", got)
	}

	clash := Record{Key: "old1"}
	clash.Add("doi", "10.1/other")
	rekeyed := idx.Filter([]Record{clash})
	if len(rekeyed) != 1 || rekeyed[0].Key != "old1_2" {
		t.Errorf("Filter() = %+v, want key old1_2", rekeyed)
	}
	got = append(got, rekeyed...)

	if err := AppendBibTeX(path, got); err != nil {
		t.Fatal(err)
	}
	entries, err := bibtex.ParseFile(path, bibtex.PolicyAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("after append: %d entries, want 3", len(entries))
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	idx, err := LoadIndex(filepath.Join(t.TempDir(), "none.bib"))
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(idx.Keys) != 0 {
		t.Errorf("expected empty index")
	}
}
