// Package storage persists parsed entries as JSONL files and in a SQLite
// database with full-text search.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/litreview/lit/internal/bibtex"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadJSONL reads entries from a JSONL file. A missing file yields no
// entries.
func ReadJSONL(path string) ([]bibtex.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening entries file: %w", err)
	}
	defer f.Close()

	var entries []bibtex.Entry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e bibtex.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading entries file: %w", err)
	}
	return entries, nil
}

// WriteJSONL writes one JSON object per entry.
func WriteJSONL(w io.Writer, entries []bibtex.Entry) error {
	enc := json.NewEncoder(w)
	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}
	}
	return nil
}

// WriteJSONLFile writes entries to path, replacing existing content.
func WriteJSONLFile(path string, entries []bibtex.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating entries file: %w", err)
	}
	if err := WriteJSONL(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
