package bibtex

import (
	"fmt"
	"strings"
)

// Policy decides whether a parsed entry is emitted.
type Policy int

const (
	// PolicyAll accepts every complete entry.
	PolicyAll Policy = iota
	// PolicyDOI requires a DOI.
	PolicyDOI
	// PolicyDOIOrTitle requires a DOI or a title.
	PolicyDOIOrTitle
	// PolicyDOIAndTitle requires both a DOI and a title.
	PolicyDOIAndTitle
	// PolicyTitleOrAbstract requires a title or an abstract.
	PolicyTitleOrAbstract
)

var policyNames = map[Policy]string{
	PolicyAll:             "all",
	PolicyDOI:             "doi",
	PolicyDOIOrTitle:      "doi-or-title",
	PolicyDOIAndTitle:     "doi-and-title",
	PolicyTitleOrAbstract: "title-or-abstract",
}

// String returns the flag name of the policy.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Accepts reports whether e satisfies the policy.
func (p Policy) Accepts(e Entry) bool {
	switch p {
	case PolicyAll:
		return true
	case PolicyDOI:
		return e.HasDOI()
	case PolicyDOIOrTitle:
		return e.HasDOI() || e.HasTitle()
	case PolicyDOIAndTitle:
		return e.HasDOI() && e.HasTitle()
	case PolicyTitleOrAbstract:
		return e.HasTitle() || e.Abstract != ""
	default:
		return false
	}
}

// ParsePolicy resolves a policy flag value.
func ParsePolicy(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown inclusion policy %q (valid: all, doi, doi-or-title, doi-and-title, title-or-abstract)", name)
}
