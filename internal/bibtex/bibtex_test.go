package bibtex

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

const twoEntries = `@article{a,
  doi={10.1/a}, title={Foo \textbf{Bar}}
}

@inproceedings{b,
  doi={https://doi.org/10.1/b},
  booktitle={Baz}
}
`

func TestExtract_EndToEnd(t *testing.T) {
	entries, err := Extract(strings.NewReader(twoEntries), PolicyDOIOrTitle)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Extract() returned %d entries, want 2", len(entries))
	}

	want := []struct{ doi, title string }{
		{"10.1/a", "Foo Bar"},
		{"10.1/b", "Baz"},
	}
	for i, w := range want {
		if entries[i].DOI != w.doi {
			t.Errorf("entries[%d].DOI = %q, want %q", i, entries[i].DOI, w.doi)
		}
		if entries[i].Title != w.title {
			t.Errorf("entries[%d].Title = %q, want %q", i, entries[i].Title, w.title)
		}
	}
	if entries[0].Type != "article" || entries[0].Key != "a" {
		t.Errorf("entries[0] header = %q/%q, want article/a", entries[0].Type, entries[0].Key)
	}
	if entries[1].Type != "inproceedings" || entries[1].Key != "b" {
		t.Errorf("entries[1] header = %q/%q, want inproceedings/b", entries[1].Type, entries[1].Key)
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"two entries", twoEntries, 2},
		{"unterminated final entry dropped", "@article{x,\n title={T}\n}\n@article{y,\n title={U}\n", 1},
		{"indented start marker", "   @book{k,\n title={T}\n   }\n", 1},
		{"closing brace must be alone", "@misc{k,\n title={T}},\n", 0},
		{"text outside entries ignored", "% comment\n}\n@misc{k,\n title={T}\n}\n", 1},
		{"new marker resets open entry", "@misc{a,\n title={A}\n@misc{b,\n title={B}\n}\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.input)
			if len(got) != tt.want {
				t.Errorf("Segment() returned %d blocks, want %d: %q", len(got), tt.want, got)
			}
		})
	}
}

func TestSegment_BlockIsVerbatim(t *testing.T) {
	input := "@misc{a,\n  title = {A},\n  note = {x}\n}\n"
	blocks := Segment(input)
	if len(blocks) != 1 {
		t.Fatalf("Segment() returned %d blocks, want 1", len(blocks))
	}
	if want := strings.TrimSuffix(input, "\n"); blocks[0] != want {
		t.Errorf("block = %q, want %q", blocks[0], want)
	}
}

func TestSegment_ResetKeepsSecondEntry(t *testing.T) {
	blocks := Segment("@misc{a,\n title={A}\n@misc{b,\n title={B}\n}\n")
	if len(blocks) != 1 {
		t.Fatalf("Segment() returned %d blocks, want 1", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "@misc{b,") {
		t.Errorf("block = %q, want it to start at the second marker", blocks[0])
	}
}

func TestExtract_VeryLongLine(t *testing.T) {
	long := strings.Repeat("word ", 2*1024*1024/5+1)
	input := "@article{a,\n  doi={10.1/a},\n  abstract={" + long + "}\n}\n" +
		"@article{b,\r\n  doi={10.1/b}\r\n}\r\n"

	entries, err := Extract(strings.NewReader(input), PolicyDOI)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Extract() returned %d entries, want 2", len(entries))
	}
	if len(entries[0].Abstract) < 2*1024*1024-1 {
		t.Errorf("abstract length = %d, want the full line", len(entries[0].Abstract))
	}
	if entries[1].DOI != "10.1/b" {
		t.Errorf("entries[1].DOI = %q, want %q", entries[1].DOI, "10.1/b")
	}
}

func TestScanner_InvalidUTF8Dropped(t *testing.T) {
	input := "@misc{a,\n title={Caf\xff\xfee}\n}\n"
	entries, err := Extract(strings.NewReader(input), PolicyAll)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Extract() returned %d entries, want 1", len(entries))
	}
	if entries[0].Title != "Cafe" {
		t.Errorf("Title = %q, want %q", entries[0].Title, "Cafe")
	}
}

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  map[string]string
	}{
		{
			name:  "braces and quotes",
			block: "@article{k,\n  DOI = \"10.5/x\",\n  Title = {A Title}\n}",
			want:  map[string]string{"doi": "10.5/x", "title": "A Title"},
		},
		{
			name:  "booktitle does not satisfy title",
			block: "@inproceedings{k,\n  booktitle={Proc}\n}",
			want:  map[string]string{"booktitle": "Proc"},
		},
		{
			name:  "nested braces truncate",
			block: "@article{k,\n  title={The {RNA} World}\n}",
			want:  map[string]string{"title": "The {RNA"},
		},
		{
			name:  "first occurrence wins",
			block: "@article{k,\n  title={First},\n  title={Second}\n}",
			want:  map[string]string{"title": "First"},
		},
		{
			name:  "all fields",
			block: "@article{k,\n doi={10.1/z},\n title={T},\n booktitle={B},\n abstract={Abs},\n keywords={kw1, kw2}\n}",
			want: map[string]string{
				"doi": "10.1/z", "title": "T", "booktitle": "B", "abstract": "Abs", "keywords": "kw1, kw2",
			},
		},
		{
			name:  "empty value does not match",
			block: "@article{k,\n title={}\n}",
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFields(tt.block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`Plain title`, "Plain title"},
		{`Foo \textbf{Bar`, "Foo Bar"},
		{`A \emph{b} c`, "A c"},
		{`The \LaTeX way`, "The way"},
		{"  spaced \n\t  out  ", "spaced out"},
		{`The {RNA`, "The RNA"},
		{`{\em x}`, "x"},
		{``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanText_NoCommandsOrDoubleSpaces(t *testing.T) {
	command := regexp.MustCompile(`\\[a-zA-Z]`)
	inputs := []string{
		`\a\b\c{d}\e{`,
		`x \\textit{y} z`,
		`{\bf{\it nested}} words`,
		"tabs\t\tand  \\alpha  spaces",
	}
	for _, in := range inputs {
		got := CleanText(in)
		if command.MatchString(got) {
			t.Errorf("CleanText(%q) = %q still has a command", in, got)
		}
		if strings.Contains(got, "  ") {
			t.Errorf("CleanText(%q) = %q has a double space", in, got)
		}
	}
}

func TestDOINormalization(t *testing.T) {
	tests := []struct {
		input string
		bare  string
		url   string
	}{
		{"10.1/a", "10.1/a", "https://doi.org/10.1/a"},
		{"https://doi.org/10.1/a", "10.1/a", "https://doi.org/10.1/a"},
		{"http://dx.doi.org/10.1/a", "10.1/a", "https://doi.org/10.1/a"},
		{"dx.doi.org/10.1/a", "10.1/a", "https://doi.org/10.1/a"},
		{"  10.1/AbC \n", "10.1/AbC", "https://doi.org/10.1/AbC"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BareDOI(tt.input); got != tt.bare {
				t.Errorf("BareDOI(%q) = %q, want %q", tt.input, got, tt.bare)
			}
			if got := DOIURL(tt.input); got != tt.url {
				t.Errorf("DOIURL(%q) = %q, want %q", tt.input, got, tt.url)
			}
			if got := NormalizeDOI(tt.input, DOIFull); got != tt.url {
				t.Errorf("NormalizeDOI(%q, DOIFull) = %q, want %q", tt.input, got, tt.url)
			}
			if got := BareDOI(DOIURL(tt.bare)); got != tt.bare {
				t.Errorf("BareDOI(DOIURL(%q)) = %q, want round trip", tt.bare, got)
			}
		})
	}
}

func TestParseDOIMode(t *testing.T) {
	if m, err := ParseDOIMode("bare"); err != nil || m != DOIBare {
		t.Errorf("ParseDOIMode(bare) = %v, %v", m, err)
	}
	if m, err := ParseDOIMode("URL"); err != nil || m != DOIFull {
		t.Errorf("ParseDOIMode(URL) = %v, %v", m, err)
	}
	if _, err := ParseDOIMode("doi"); err == nil {
		t.Error("ParseDOIMode(doi) expected error")
	}
}

func TestPolicies(t *testing.T) {
	doiOnly := Entry{DOI: "10.1/a"}
	titleOnly := Entry{Title: "T"}
	both := Entry{DOI: "10.1/a", Title: "T"}
	abstractOnly := Entry{Abstract: "A"}
	empty := Entry{}

	tests := []struct {
		policy Policy
		entry  Entry
		want   bool
	}{
		{PolicyAll, empty, true},
		{PolicyDOI, doiOnly, true},
		{PolicyDOI, titleOnly, false},
		{PolicyDOIOrTitle, titleOnly, true},
		{PolicyDOIOrTitle, doiOnly, true},
		{PolicyDOIOrTitle, empty, false},
		{PolicyDOIAndTitle, both, true},
		{PolicyDOIAndTitle, doiOnly, false},
		{PolicyTitleOrAbstract, abstractOnly, true},
		{PolicyTitleOrAbstract, doiOnly, false},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			if got := tt.policy.Accepts(tt.entry); got != tt.want {
				t.Errorf("%v.Accepts(%+v) = %v, want %v", tt.policy, tt.entry, got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	for p, name := range policyNames {
		got, err := ParsePolicy(name)
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", name, got, err, p)
		}
	}
	if _, err := ParsePolicy("sometimes"); err == nil {
		t.Error("ParsePolicy(sometimes) expected error")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(path, []byte(twoEntries), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ParseFile(path, PolicyDOI)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ParseFile() returned %d entries, want 2", len(entries))
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.bib"), PolicyDOI); err == nil {
		t.Error("ParseFile() on missing file expected error")
	}
}

func TestParseEntry_FieldsCleaned(t *testing.T) {
	e := ParseEntry("@article{k,\n doi={ dx.doi.org/10.9/q },\n abstract={We \\cite{x} show   things},\n keywords={a, \\b c}\n}")
	if e.DOI != "10.9/q" {
		t.Errorf("DOI = %q, want %q", e.DOI, "10.9/q")
	}
	if e.Abstract != "We show things" {
		t.Errorf("Abstract = %q, want %q", e.Abstract, "We show things")
	}
	if e.Keywords != "a, c" {
		t.Errorf("Keywords = %q, want %q", e.Keywords, "a, c")
	}
	if e.Title != "" {
		t.Errorf("Title = %q, want empty", e.Title)
	}
}

func TestCountEntries(t *testing.T) {
	n, err := CountEntries(strings.NewReader(twoEntries + "@misc{c,\n note={x}\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountEntries() = %d, want 3", n)
	}
}
