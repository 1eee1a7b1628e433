package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
)

// Index records the keys and DOIs already present in a .bib file so new
// records can be deduplicated before appending.
type Index struct {
	Keys map[string]bool
	// DOIs maps lowercased bare DOIs to citation keys.
	DOIs map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// LoadIndex indexes path. A missing file yields an empty index.
func LoadIndex(path string) (*Index, error) {
	idx := NewIndex()
	entries, err := bibtex.ParseFile(path, bibtex.PolicyAll)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	for _, e := range entries {
		idx.add(e.Key, e.DOI)
	}
	return idx, nil
}

// freeKey returns key, or key with the first free _N suffix when a record
// with a different DOI already uses it.
func (idx *Index) freeKey(key string) string {
	if key == "" || !idx.Keys[key] {
		return key
	}
	for n := 2; ; n++ {
		if k := fmt.Sprintf("%s_%d", key, n); !idx.Keys[k] {
			return k
		}
	}
}

func (idx *Index) add(key, doi string) {
	if key != "" {
		idx.Keys[key] = true
	}
	if d := indexDOI(doi); d != "" {
		idx.DOIs[d] = key
	}
}

// Has reports whether a record is already indexed. The DOI is matched
// first; the key only when the record has no DOI.
func (idx *Index) Has(r Record) bool {
	if d := indexDOI(r.Value("doi")); d != "" {
		_, ok := idx.DOIs[d]
		return ok
	}
	return idx.Keys[r.Key]
}

// Filter returns the records not yet indexed and indexes them, so
// duplicates within records are dropped too. A kept record whose key is
// taken gets a suffixed key.
func (idx *Index) Filter(records []Record) []Record {
	var fresh []Record
	for _, r := range records {
		if idx.Has(r) {
			continue
		}
		r.Key = idx.freeKey(r.Key)
		idx.add(r.Key, r.Value("doi"))
		fresh = append(fresh, r)
	}
	return fresh
}

// Value returns the first field named name, or "".
func (r Record) Value(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func indexDOI(doi string) string {
	return strings.ToLower(bibtex.BareDOI(doi))
}

// AppendBibTeX appends records to path, creating it if needed.
func AppendBibTeX(path string, records []Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := WriteBibTeX(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
