package springer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/litreview/lit/internal/export"
	"github.com/mmcdole/gofeed"
)

// DefaultYear is used in citation keys of papers without a year.
const DefaultYear = "2024"

// Paper is one crawled feed item.
type Paper struct {
	DOI     string `json:"doi"`
	Title   string `json:"title"`
	Year    string `json:"year,omitempty"`
	PubDate string `json:"pub_date,omitempty"`
}

var (
	yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

	// Publisher-specific prefixes are tried before the generic pattern.
	guidDOIPatterns = []*regexp.Regexp{
		regexp.MustCompile(`10\.1007/[^?&\s]+`),
		regexp.MustCompile(`10\.1140/[^?&\s]+`),
		regexp.MustCompile(`10\.1186/[^?&\s]+`),
		regexp.MustCompile(`10\.1038/[^?&\s]+`),
		regexp.MustCompile(`10\.1017/[^?&\s]+`),
		regexp.MustCompile(`10\.\d{4,}/[^?&\s]+`),
	}
)

// PaperFromItem converts a feed item. Items without a title or a GUID are
// rejected.
func PaperFromItem(item *gofeed.Item) (Paper, bool) {
	if item == nil {
		return Paper{}, false
	}
	p := Paper{
		Title:   CleanTitle(item.Title),
		DOI:     DOIFromGUID(item.GUID),
		PubDate: strings.TrimSpace(item.Published),
	}
	if m := yearPattern.FindStringSubmatch(p.PubDate); m != nil {
		p.Year = m[1]
	}
	return p, p.Title != "" && p.DOI != ""
}

// DOIFromGUID extracts a DOI from a GUID. A GUID without a recognisable
// DOI is returned trimmed.
func DOIFromGUID(guid string) string {
	guid = strings.TrimSpace(guid)
	for _, re := range guidDOIPatterns {
		if m := re.FindString(guid); m != "" {
			return m
		}
	}
	return guid
}

// CleanTitle reduces a possibly HTML-bearing title to single-spaced plain
// text that is safe inside a braced BibTeX value.
func CleanTitle(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	text = strings.NewReplacer("{", "", "}", "", `"`, "'").Replace(text)
	return strings.TrimSpace(text)
}

// Records converts papers to BibTeX records keyed springer<year>_<nnn>.
func Records(papers []Paper) []export.Record {
	records := make([]export.Record, 0, len(papers))
	for i, p := range papers {
		year := p.Year
		if year == "" {
			year = DefaultYear
		}
		r := export.Record{Type: "article", Key: fmt.Sprintf("springer%s_%03d", year, i+1)}
		r.Add("title", p.Title)
		r.Add("year", p.Year)
		r.Add("doi", p.DOI)
		r.Add("publisher", "Springer")
		r.Add("note", "Crawled from Springer RSS feed")
		records = append(records, r)
	}
	return records
}

// CSVHeader is the header of the crawl CSV.
var CSVHeader = []string{"doi", "title", "year"}

// Rows returns doi,title,year rows.
func Rows(papers []Paper) [][]string {
	rows := make([][]string, 0, len(papers))
	for _, p := range papers {
		rows = append(rows, []string{p.DOI, p.Title, p.Year})
	}
	return rows
}

// YearCount is the number of papers published in a year.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// Summary describes a crawl result.
type Summary struct {
	Total      int         `json:"total"`
	WithDOI    int         `json:"with_doi"`
	DOIPercent float64     `json:"doi_percent"`
	Years      []YearCount `json:"years"`
	Sample     []Paper     `json:"sample"`
}

// Summarize counts papers per year (ascending, "Unknown" for missing
// years) and keeps the first three as a sample.
func Summarize(papers []Paper) Summary {
	s := Summary{Total: len(papers)}
	years := make(map[string]int)
	for _, p := range papers {
		if p.DOI != "" {
			s.WithDOI++
		}
		y := p.Year
		if y == "" {
			y = "Unknown"
		}
		years[y]++
	}
	if s.Total > 0 {
		s.DOIPercent = 100 * float64(s.WithDOI) / float64(s.Total)
	}
	for y, n := range years {
		s.Years = append(s.Years, YearCount{Year: y, Count: n})
	}
	sort.Slice(s.Years, func(i, j int) bool { return s.Years[i].Year < s.Years[j].Year })

	n := min(3, len(papers))
	s.Sample = append([]Paper(nil), papers[:n]...)
	return s
}
