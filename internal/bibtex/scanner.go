// Package bibtex extracts bibliographic records from .bib files using the
// line-oriented heuristics shared by every lit command.
//
// This is deliberately not a BibTeX grammar. An entry starts at a line whose
// trimmed form looks like "@type{" and ends at a line that is exactly "}".
// Field values are located with regular expressions over the whole entry
// text, so nested braces truncate a value at the first inner closing brace.
package bibtex

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var entryStartRegex = regexp.MustCompile(`^@\w+\s*\{`)

// Scanner yields raw entry blocks from a bibliography stream.
// It is single-pass and cannot be restarted.
type Scanner struct {
	lines *bufio.Reader
	done  bool
	block string
	err   error
}

// NewScanner returns a Scanner reading from r. Invalid UTF-8 sequences in
// the input are dropped rather than reported.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{lines: bufio.NewReader(r)}
}

// readLine returns the next line without its terminator. Lines have no
// length limit.
func (s *Scanner) readLine() (string, bool) {
	if s.done {
		return "", false
	}
	line, err := s.lines.ReadString('\n')
	if err != nil {
		s.done = true
		if err != io.EOF {
			s.err = err
			return "", false
		}
		if line == "" {
			return "", false
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true
}

// Scan advances to the next complete entry. It returns false at end of input
// or on a read error; an entry still open at end of input is discarded.
func (s *Scanner) Scan() bool {
	var current []string
	open := false

	for {
		raw, ok := s.readLine()
		if !ok {
			break
		}
		line := strings.ToValidUTF8(raw, "")
		trimmed := strings.TrimSpace(line)

		if entryStartRegex.MatchString(trimmed) {
			// A new marker abandons whatever entry was open.
			current = []string{line}
			open = true
			continue
		}
		if !open {
			continue
		}

		current = append(current, line)
		if trimmed == "}" {
			s.block = strings.Join(current, "\n")
			return true
		}
	}

	s.block = ""
	return false
}

// Text returns the most recent entry block, lines joined with "\n".
func (s *Scanner) Text() string {
	return s.block
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

// Segment splits text into raw entry blocks.
func Segment(text string) []string {
	var blocks []string
	s := NewScanner(strings.NewReader(text))
	for s.Scan() {
		blocks = append(blocks, s.Text())
	}
	return blocks
}
