package bibtex

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Recognized field names.
const (
	FieldDOI       = "doi"
	FieldTitle     = "title"
	FieldBooktitle = "booktitle"
	FieldAbstract  = "abstract"
	FieldKeywords  = "keywords"
)

// Fields lists the field names ExtractFields looks for, in lookup order.
var Fields = []string{FieldDOI, FieldTitle, FieldBooktitle, FieldAbstract, FieldKeywords}

var (
	fieldRegexes = buildFieldRegexes(Fields)

	// @type{key, on the opening line
	headerRegex = regexp.MustCompile(`^\s*@(\w+)\s*\{\s*([^,\s]*)`)
)

func buildFieldRegexes(names []string) map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(names))
	for _, name := range names {
		// \b keeps "title" from matching inside "booktitle".
		m[name] = regexp.MustCompile(`(?i)\b` + name + `\s*=\s*["{]([^}"]+)["}]`)
	}
	return m
}

// Entry is one bibliographic record extracted from an entry block.
type Entry struct {
	Type     string            `json:"type,omitempty"`
	Key      string            `json:"key,omitempty"`
	DOI      string            `json:"doi,omitempty"`
	Title    string            `json:"title,omitempty"`
	Abstract string            `json:"abstract,omitempty"`
	Keywords string            `json:"keywords,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Raw      string            `json:"-"`
}

// HasDOI reports whether the entry carries a DOI.
func (e Entry) HasDOI() bool {
	return e.DOI != ""
}

// HasTitle reports whether the entry carries a title or booktitle.
func (e Entry) HasTitle() bool {
	return e.Title != ""
}

// ExtractFields returns the raw value of every recognized field present in
// block. The first occurrence of a field wins.
func ExtractFields(block string) map[string]string {
	found := make(map[string]string)
	for _, name := range Fields {
		if m := fieldRegexes[name].FindStringSubmatch(block); m != nil {
			found[name] = m[1]
		}
	}
	return found
}

// ParseEntry builds an Entry from a raw entry block.
func ParseEntry(block string) Entry {
	raw := ExtractFields(block)

	e := Entry{
		Raw:    block,
		Fields: make(map[string]string, len(raw)),
	}
	if m := headerRegex.FindStringSubmatch(block); m != nil {
		e.Type = strings.ToLower(m[1])
		e.Key = m[2]
	}

	for name, value := range raw {
		if name == FieldDOI {
			e.Fields[name] = BareDOI(value)
		} else {
			e.Fields[name] = CleanText(value)
		}
	}

	e.DOI = e.Fields[FieldDOI]
	e.Title = e.Fields[FieldTitle]
	if e.Title == "" {
		e.Title = e.Fields[FieldBooktitle]
	}
	e.Abstract = e.Fields[FieldAbstract]
	e.Keywords = e.Fields[FieldKeywords]

	return e
}

// Extract reads every entry from r and keeps those accepted by policy.
func Extract(r io.Reader, policy Policy) ([]Entry, error) {
	var entries []Entry
	s := NewScanner(r)
	for s.Scan() {
		e := ParseEntry(s.Text())
		if policy.Accepts(e) {
			entries = append(entries, e)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return entries, nil
}

// ParseFile extracts entries from the bibliography file at path.
func ParseFile(path string, policy Policy) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bibliography: %w", err)
	}
	defer f.Close()

	entries, err := Extract(f, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// CountEntries returns the number of complete entry blocks in r regardless
// of their fields.
func CountEntries(r io.Reader) (int, error) {
	n := 0
	s := NewScanner(r)
	for s.Scan() {
		n++
	}
	return n, s.Err()
}
