// Package export writes entries and tool results as BibTeX, CSV and XLSX.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
)

// Field is one name = {value} pair of a written BibTeX entry.
type Field struct {
	Name  string
	Value string
}

// Record is a BibTeX entry to be written. Fields keep their order and
// empty values are left out.
type Record struct {
	Type   string
	Key    string
	Fields []Field
}

// Add appends a field when value is non-empty.
func (r *Record) Add(name, value string) {
	if value == "" {
		return
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// BibTeX renders the record. The last field has no trailing comma.
func (r Record) BibTeX() string {
	entryType := r.Type
	if entryType == "" {
		entryType = "article"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, r.Key))
	for i, f := range r.Fields {
		b.WriteString(fmt.Sprintf("  %s={%s}", f.Name, f.Value))
		if i < len(r.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// WriteBibTeX writes records separated by blank lines.
func WriteBibTeX(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := io.WriteString(w, r.BibTeX()+"\n"); err != nil {
			return fmt.Errorf("writing entry %s: %w", r.Key, err)
		}
	}
	return nil
}

// RecordFromEntry rebuilds a clean entry from parsed fields. Text values
// are LaTeX-escaped, the DOI is written as given.
func RecordFromEntry(e bibtex.Entry, mode bibtex.DOIMode) Record {
	r := Record{Type: strings.ToLower(e.Type), Key: e.Key}
	if r.Key == "" {
		r.Key = "entry"
	}
	r.Add("title", escapeLatex(e.Title))
	r.Add("doi", bibtex.NormalizeDOI(e.DOI, mode))
	r.Add("abstract", escapeLatex(e.Abstract))
	r.Add("keywords", escapeLatex(e.Keywords))
	return r
}

// RecordsFromEntries converts entries in order.
func RecordsFromEntries(entries []bibtex.Entry, mode bibtex.DOIMode) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, RecordFromEntry(e, mode))
	}
	return records
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// & first so later replacements are not escaped twice
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
