package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/litreview/lit/internal/bibtex"
)

// Defaults used when a paper lacks a field or the reply lacks a line.
const (
	NoTitle               = "No title"
	NoAbstract            = "No abstract available"
	UnknownCategory       = "Unknown Category"
	NoDescription         = "No description available"
	categorizeMaxTokens   = 200
	classifyMaxTokens     = 50
	labellingTemperature  = 0.1
	maxLoggedTitleLength  = 50
	categoryLinePrefix    = "CATEGORY:"
	descriptionLinePrefix = "DESCRIPTION:"
)

const categorizeSystem = "You are an expert computer science researcher who categorizes papers and summarizes their contributions concisely."

const categorizeTemplate = `Based on the title and abstract of this computer science paper, please provide:

1. CATEGORY: A specific computer science subject area or field (e.g., "Machine Learning", "Databases", "Software Engineering", "Computer Networks", "Operating Systems", "Computer Graphics", "Human-Computer Interaction", "Algorithms and Data Structures", "Programming Languages", "Distributed Systems", "Computer Security", "Theory of Computation", "Web Development", "Artificial Intelligence", etc.)

2. DESCRIPTION: A concise 1-2 sentence description of what the paper did/accomplished and its main contribution.

Title: %s

Abstract: %s

Please respond in this exact format:
CATEGORY: [Category Name]
DESCRIPTION: [Brief description of what was done and main contribution]`

const classifySystem = "You are an expert computer science educator who classifies research papers into appropriate undergraduate/graduate CS course subjects."

const classifyTemplate = `Your task is to try to classify each paper based on its title and abstract. The goal is to find papers that are targetting a specific computer science course (like Databases, or Operating Systems). However, not all papers will fit this neat classification, so you can try to come up with a more appropriate label:

    Title: %s

    Abstract: %s

    Please respond with just the best prediction of course name (e.g., "Machine Learning", "Databases", "Software Engineering", "Computer Networks", "Operating Systems", "Computer Graphics", "Human-Computer Interaction", "Algorithms and Data Structures", "Introductory Programming", "Object-oriented Programming", "Distributed Systems", "Computer Security", "Theory of Computation", "Web Development", or another specific CS course subject or label if more appropriate).

Course Subject:`

// Paper is the input to a labelling prompt.
type Paper struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`
}

// PaperFromEntry converts a bibliography entry.
func PaperFromEntry(e bibtex.Entry) Paper {
	return Paper{DOI: e.DOI, Title: e.Title, Abstract: e.Abstract}
}

func (p Paper) promptFields() (string, string) {
	title, abstract := p.Title, p.Abstract
	if title == "" {
		title = NoTitle
	}
	if abstract == "" {
		abstract = NoAbstract
	}
	return title, abstract
}

// ShortTitle truncates the title for log lines.
func (p Paper) ShortTitle() string {
	return truncateUTF8(p.Title, maxLoggedTitleLength)
}

// CategorizeRequest builds the category-and-description prompt.
func CategorizeRequest(p Paper) Request {
	title, abstract := p.promptFields()
	return Request{
		System:      categorizeSystem,
		User:        fmt.Sprintf(categorizeTemplate, title, abstract),
		MaxTokens:   categorizeMaxTokens,
		Temperature: labellingTemperature,
	}
}

// Categorization is a parsed category reply.
type Categorization struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ParseCategorization reads the CATEGORY: and DESCRIPTION: lines of a
// reply. Missing lines fall back to UnknownCategory and NoDescription.
func ParseCategorization(reply string) Categorization {
	c := Categorization{Category: UnknownCategory, Description: NoDescription}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, categoryLinePrefix):
			c.Category = strings.TrimSpace(strings.TrimPrefix(line, categoryLinePrefix))
		case strings.HasPrefix(line, descriptionLinePrefix):
			c.Description = strings.TrimSpace(strings.TrimPrefix(line, descriptionLinePrefix))
		}
	}
	return c
}

// Categorize asks the model for a category and a short description.
func Categorize(ctx context.Context, c Completer, p Paper) (Categorization, error) {
	reply, err := c.Complete(ctx, CategorizeRequest(p))
	if err != nil {
		return Categorization{}, err
	}
	return ParseCategorization(reply), nil
}

// ClassifyRequest builds the course-subject prompt.
func ClassifyRequest(p Paper) Request {
	title, abstract := p.promptFields()
	return Request{
		System:      classifySystem,
		User:        fmt.Sprintf(classifyTemplate, title, abstract),
		MaxTokens:   classifyMaxTokens,
		Temperature: labellingTemperature,
	}
}

// Classify asks the model for the course subject that best fits the paper.
func Classify(ctx context.Context, c Completer, p Paper) (string, error) {
	reply, err := c.Complete(ctx, ClassifyRequest(p))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// LabelCount is how many papers received a label.
type LabelCount struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution counts labels, most frequent first. Ties keep the order in
// which labels first appeared.
func Distribution(labels []string) []LabelCount {
	index := make(map[string]int)
	var out []LabelCount
	for _, l := range labels {
		i, ok := index[l]
		if !ok {
			i = len(out)
			index[l] = i
			out = append(out, LabelCount{Label: l})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percent = 100 * float64(out[i].Count) / float64(len(labels))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// truncateUTF8 safely truncates text to approximately maxLen bytes
// without splitting multi-byte UTF-8 characters. Adds "..." if truncated.
func truncateUTF8(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	validLen := maxLen
	for validLen > 0 && !utf8.RuneStart(text[validLen]) {
		validLen--
	}
	return text[:validLen] + "..."
}
