package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
	"github.com/litreview/lit/internal/storage"
)

// requireFile exits with ExitDataError unless path names a readable file.
func requireFile(path, what string) {
	if path == "" {
		exitWithError(ExitError, "%s is required", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		exitWithError(ExitDataError, "%s '%s' not found", what, path)
	}
	if info.IsDir() {
		exitWithError(ExitDataError, "%s '%s' is a directory", what, path)
	}
}

// loadEntries reads entries accepted by policy from a BibTeX file or from a
// JSONL file written by convert --format jsonl.
func loadEntries(path string, policy bibtex.Policy) ([]bibtex.Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		all, err := storage.ReadJSONL(path)
		if err != nil {
			return nil, err
		}
		var entries []bibtex.Entry
		for _, e := range all {
			if policy.Accepts(e) {
				entries = append(entries, e)
			}
		}
		return entries, nil
	}
	entries, err := bibtex.ParseFile(path, policy)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}

// mustLoadEntries is loadEntries for a required input file.
func mustLoadEntries(path, what string, policy bibtex.Policy) []bibtex.Entry {
	requireFile(path, what)
	entries, err := loadEntries(path, policy)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return entries
}

// replaceExt swaps the extension of path for ext.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
