package bibtex

import (
	"fmt"
	"strings"
)

// DOIResolver is the canonical resolver prefix for full DOI URLs.
const DOIResolver = "https://doi.org/"

// legacyDOIPrefixes are stripped when reducing a DOI to its bare form.
var legacyDOIPrefixes = []string{DOIResolver, "http://dx.doi.org/", "dx.doi.org/"}

// DOIMode selects the output form of NormalizeDOI.
type DOIMode int

const (
	// DOIBare is the prefix-free form, e.g. "10.1000/xyz".
	DOIBare DOIMode = iota
	// DOIFull is the resolver URL form, e.g. "https://doi.org/10.1000/xyz".
	DOIFull
)

// BareDOI strips surrounding whitespace and one resolver prefix.
// Case is preserved.
func BareDOI(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range legacyDOIPrefixes {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return s
}

// DOIURL returns the resolver URL form of s. Empty input stays empty.
func DOIURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, DOIResolver) {
		return s
	}
	return DOIResolver + BareDOI(s)
}

// NormalizeDOI applies the normalization selected by mode.
func NormalizeDOI(s string, mode DOIMode) string {
	if mode == DOIFull {
		return DOIURL(s)
	}
	return BareDOI(s)
}

// ParseDOIMode resolves a --doi-format flag value ("bare" or "url").
func ParseDOIMode(name string) (DOIMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bare":
		return DOIBare, nil
	case "url", "full":
		return DOIFull, nil
	default:
		return 0, fmt.Errorf("unknown DOI format %q (valid: bare, url)", name)
	}
}
