// Package pdf finds DOIs and titles in the text layer of PDF files.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOIPages is how many leading pages are searched for a DOI.
const DOIPages = 3

// 10.XXXX/... where XXXX is 4-9 digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ExtractDOI returns the first DOI printed on the leading pages of a PDF,
// or "" if there is none.
func ExtractDOI(filePath string) (string, error) {
	text, err := ExtractText(filePath, DOIPages)
	if err != nil {
		return "", err
	}
	return findDOI(text), nil
}

// ExtractTitle returns the first substantial line of page one. It is a
// heuristic and may return "".
func ExtractTitle(filePath string) (string, error) {
	text, err := ExtractText(filePath, 1)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line, nil
		}
	}
	return "", nil
}

// ExtractText extracts the plain text of the first maxPages pages
// (all pages when maxPages <= 0). Unreadable pages are skipped.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// Found is the scan result for one PDF.
type Found struct {
	Path  string `json:"path"`
	DOI   string `json:"doi,omitempty"`
	Title string `json:"title,omitempty"`
	Err   error  `json:"-"`
}

// ScanDir inspects every *.pdf directly inside dir, in name order. A file
// that cannot be read is reported through Found.Err.
func ScanDir(dir string) ([]Found, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	for _, pattern := range []string{"*.pdf", "*.PDF"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	found := make([]Found, 0, len(paths))
	for i, p := range paths {
		if i > 0 && paths[i-1] == p {
			continue // case-insensitive filesystems match both globs
		}
		fd := Found{Path: p}
		fd.DOI, fd.Err = ExtractDOI(p)
		if fd.Err == nil {
			fd.Title, _ = ExtractTitle(p)
		}
		found = append(found, fd)
	}
	return found, nil
}

// DOIs returns the DOIs of successfully scanned files.
func DOIs(found []Found) []string {
	var out []string
	for _, f := range found {
		if f.Err == nil && f.DOI != "" {
			out = append(out, f.DOI)
		}
	}
	return out
}

func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

// isHeaderLine reports running heads and footers.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
